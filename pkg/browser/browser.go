// Package browser abstracts the small slice of browser automation the
// pipeline needs: navigating a frameset page, enumerating nested frames and
// reading or clicking inside them. The resolver and walker are written
// against these interfaces; the rod implementation is the only production
// backend.
package browser

import "time"

// Link is one anchor inside a frame
type Link struct {
	Text string
	Href string
}

// ScrollState describes a frame's vertical scroll position
type ScrollState struct {
	Top      int
	Height   int
	Viewport int
}

// AtEnd reports whether the viewport has reached the bottom of the
// scrollable area, with a small tolerance for sub-pixel layouts
func (s ScrollState) AtEnd() bool {
	return s.Top+s.Viewport >= s.Height-20
}

// Frame is one nested, independently navigable document region. Every
// blocking call takes a caller-supplied timeout; a timeout is reported as an
// error, never escalated.
type Frame interface {
	// Name returns the frame's name attribute ("" when absent)
	Name() string

	// URL returns the frame's document URL
	URL() string

	// Text extracts the visible body text
	Text(timeout time.Duration) (string, error)

	// HTML returns the frame's rendered HTML
	HTML(timeout time.Duration) (string, error)

	// Has reports whether the selector matches at least one element
	Has(selector string) bool

	// Fill writes a value into the first element matching selector
	Fill(selector, value string, timeout time.Duration) error

	// Click clicks the first element matching selector
	Click(selector string, timeout time.Duration) error

	// ClickText clicks the link whose visible text equals text exactly,
	// falling back to a scripted click when a real one is intercepted
	ClickText(text string, timeout time.Duration) error

	// Links lists all anchors in the frame in document order
	Links(timeout time.Duration) ([]Link, error)

	// Scroll scrolls the frame's scrollable containers down by dy pixels
	Scroll(dy int) error

	// ScrollState reports the current vertical scroll position
	ScrollState() (ScrollState, error)
}

// Session is one exclusive browser session. Sessions are never shared
// between workers; DOM navigation is stateful and non-reentrant.
type Session interface {
	// Navigate loads the given URL in the top-level page
	Navigate(url string, timeout time.Duration) error

	// Frames enumerates all live frames, including nested ones
	Frames() ([]Frame, error)

	// Close tears the session down, releasing the underlying browser
	Close() error
}

// SessionFactory creates fresh sessions. The orchestrator uses it to
// restart worker sessions periodically.
type SessionFactory interface {
	NewSession() (Session, error)
}
