package pixview

import "github.com/gogpu/gpucontext"

// ViewOption configures a View during creation.
//
// Example:
//
//	v, err := pixview.NewView(display, pixview.FromSource(src),
//	    pixview.WithScaleFactor(2))
type ViewOption func(*viewOptions)

// viewOptions holds optional configuration for View creation.
type viewOptions struct {
	scale  float64 // zero defers to the window or display

	window gpucontext.WindowProvider
}

// defaultViewOptions returns the default view options.
func defaultViewOptions() viewOptions {
	return viewOptions{}
}

// WithScaleFactor sets the display backing scale: the number of physical
// pixels per logical point. It overrides the display's own scale.
// Non-positive values are ignored.
func WithScaleFactor(scale float64) ViewOption {
	return func(o *viewOptions) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithWindow injects the host window. Its ScaleFactor overrides
// WithScaleFactor and its Size is used by View.SyncWindow.
func WithWindow(w gpucontext.WindowProvider) ViewOption {
	return func(o *viewOptions) {
		o.window = w
	}
}
