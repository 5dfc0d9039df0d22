package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMemoryBudgetExceeded is returned when a frame texture would exceed the
// memory budget even after completed textures are released.
var ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default frame texture budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the smallest accepted budget (16 MB).
	MinMemoryMB = 16
)

// MemoryStats contains frame texture memory statistics.
type MemoryStats struct {
	// TotalBytes is the budget in bytes.
	TotalBytes uint64

	// UsedBytes is the memory held by live textures, including retired ones
	// still in flight.
	UsedBytes uint64

	// AvailableBytes is the remaining budget.
	AvailableBytes uint64

	// PeakBytes is the highest UsedBytes observed.
	PeakBytes uint64

	// TextureCount is the number of live textures.
	TextureCount int

	// Utilization is the fraction of budget used (0.0 to 1.0).
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d textures]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.TextureCount)
}

// MemoryBudget accounts for frame texture memory. Several FrameTextures
// may share one budget.
//
// MemoryBudget is safe for concurrent use.
type MemoryBudget struct {
	mu sync.Mutex

	budgetBytes uint64
	usedBytes   uint64
	peakBytes   uint64
	textures    int
}

// NewMemoryBudget creates a budget of megabytes. Values below MinMemoryMB
// select DefaultMaxMemoryMB.
func NewMemoryBudget(megabytes int) *MemoryBudget {
	if megabytes < MinMemoryMB {
		megabytes = DefaultMaxMemoryMB
	}
	//nolint:gosec // G115: bounded below by MinMemoryMB
	return &MemoryBudget{budgetBytes: uint64(megabytes) * 1024 * 1024}
}

// textureBytes is the memory held by an RGBA8 frame texture.
func textureBytes(width, height int) uint64 {
	return uint64(width) * uint64(height) * 4 //nolint:gosec // validated positive
}

// Reserve accounts for n bytes or returns ErrMemoryBudgetExceeded.
func (b *MemoryBudget) Reserve(n uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.usedBytes+n > b.budgetBytes {
		return fmt.Errorf("%w: need %d bytes, have %d bytes available",
			ErrMemoryBudgetExceeded, n, b.budgetBytes-b.usedBytes)
	}
	b.usedBytes += n
	b.textures++
	b.peakBytes = max(b.peakBytes, b.usedBytes)
	return nil
}

// Release returns n bytes to the budget.
func (b *MemoryBudget) Release(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.usedBytes {
		n = b.usedBytes
	}
	b.usedBytes -= n
	if b.textures > 0 {
		b.textures--
	}
}

// Stats returns current memory statistics.
func (b *MemoryBudget) Stats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := MemoryStats{
		TotalBytes:     b.budgetBytes,
		UsedBytes:      b.usedBytes,
		AvailableBytes: b.budgetBytes - b.usedBytes,
		PeakBytes:      b.peakBytes,
		TextureCount:   b.textures,
	}
	if b.budgetBytes > 0 {
		s.Utilization = float64(b.usedBytes) / float64(b.budgetBytes)
	}
	return s
}
