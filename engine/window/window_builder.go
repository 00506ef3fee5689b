package window

// WindowBuilderOption configures an engineWindow before its platform window is created.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size. Non-positive values keep the default.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithSizeLimits bounds interactive resizes. A maximum of -1 leaves that axis unbounded; a
// minimum below 1 keeps the default.
//
// Parameters:
//   - minWidth: minimum width in pixels
//   - minHeight: minimum height in pixels
//   - maxWidth: maximum width in pixels, or -1
//   - maxHeight: maximum height in pixels, or -1
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		if minWidth > 0 {
			w.minWidth = minWidth
		}
		if minHeight > 0 {
			w.minHeight = minHeight
		}
		w.maxWidth = maxWidth
		w.maxHeight = maxHeight
	}
}
