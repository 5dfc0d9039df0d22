package pixview

// Display shows frames on a host view. Implementations choose how frames
// reach the screen (GPU texture sampling or a decoded image) at
// construction time; the View drives both the same way.
type Display interface {
	// Update replaces the displayed frame with pix, a width x height RGBA
	// buffer, and presents it once before returning. A malformed buffer is
	// rejected and the previous frame stays.
	Update(pix []byte, width, height int) error

	// Present shows the current frame again. It reports whether a frame
	// reached the screen; missing resources skip the frame silently.
	Present() bool

	// Close releases the display's resources. Safe to call more than once.
	Close() error
}

// Resizer is implemented by displays whose drawable tracks the host view
// size independently of the frame size.
type Resizer interface {
	Resize(width, height int) error
}

// ScaleReporter is implemented by displays that know the backing scale of
// the host view. A View uses it when no scale is injected into the View.
type ScaleReporter interface {
	ScaleFactor() float64
}
