// Package browsertest provides in-memory fakes of the browser interfaces
// for exercising frame resolution and navigation logic without Chromium.
package browsertest

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
)

// FakeFrame is a scriptable browser.Frame. Zero value is usable; set the
// fields a test cares about and leave the rest.
type FakeFrame struct {
	FrameName string
	FrameURL  string
	Body      string
	Selectors map[string]bool
	LinkList  []browser.Link

	// Optional hooks. When nil, the default behaviors below apply.
	FillFunc      func(selector, value string) error
	ClickFunc     func(selector string) error
	ClickTextFunc func(text string) error
	ScrollFunc    func(dy int) error

	// Scrolling simulation for discovery tests.
	Scrollable browser.ScrollState

	mu         sync.Mutex
	FillCalls  []string
	ClickCalls []string
	TextClicks []string
}

func (f *FakeFrame) Name() string { return f.FrameName }
func (f *FakeFrame) URL() string  { return f.FrameURL }

func (f *FakeFrame) Text(time.Duration) (string, error) { return f.Body, nil }
func (f *FakeFrame) HTML(time.Duration) (string, error) { return f.Body, nil }

func (f *FakeFrame) Has(selector string) bool { return f.Selectors[selector] }

func (f *FakeFrame) Fill(selector, value string, _ time.Duration) error {
	f.mu.Lock()
	f.FillCalls = append(f.FillCalls, selector+"="+value)
	f.mu.Unlock()
	if f.FillFunc != nil {
		return f.FillFunc(selector, value)
	}
	if !f.Selectors[selector] {
		return errors.New("no element matching " + selector)
	}
	return nil
}

func (f *FakeFrame) Click(selector string, _ time.Duration) error {
	f.mu.Lock()
	f.ClickCalls = append(f.ClickCalls, selector)
	f.mu.Unlock()
	if f.ClickFunc != nil {
		return f.ClickFunc(selector)
	}
	if !f.Selectors[selector] {
		return errors.New("no element matching " + selector)
	}
	return nil
}

func (f *FakeFrame) ClickText(text string, _ time.Duration) error {
	f.mu.Lock()
	f.TextClicks = append(f.TextClicks, text)
	f.mu.Unlock()
	if f.ClickTextFunc != nil {
		return f.ClickTextFunc(text)
	}
	for _, l := range f.LinkList {
		if strings.Join(strings.Fields(l.Text), " ") == strings.Join(strings.Fields(text), " ") {
			return nil
		}
	}
	return errors.New("no link with text " + text)
}

func (f *FakeFrame) Links(time.Duration) ([]browser.Link, error) {
	return append([]browser.Link(nil), f.LinkList...), nil
}

func (f *FakeFrame) Scroll(dy int) error {
	if f.ScrollFunc != nil {
		return f.ScrollFunc(dy)
	}
	f.Scrollable.Top += dy
	max := f.Scrollable.Height - f.Scrollable.Viewport
	if f.Scrollable.Top > max {
		f.Scrollable.Top = max
	}
	if f.Scrollable.Top < 0 {
		f.Scrollable.Top = 0
	}
	return nil
}

func (f *FakeFrame) ScrollState() (browser.ScrollState, error) {
	return f.Scrollable, nil
}

// FakeSession serves a fixed frame set per navigated URL.
type FakeSession struct {
	// FramesByURL maps a navigated URL to the frames the session reports.
	// When the current URL has no entry, FrameList is used.
	FramesByURL map[string][]browser.Frame
	FrameList   []browser.Frame

	NavigateFunc func(url string) error

	mu         sync.Mutex
	currentURL string
	NavCalls   []string
	Closed     bool
}

func (s *FakeSession) Navigate(url string, _ time.Duration) error {
	s.mu.Lock()
	s.NavCalls = append(s.NavCalls, url)
	s.currentURL = url
	s.mu.Unlock()
	if s.NavigateFunc != nil {
		return s.NavigateFunc(url)
	}
	return nil
}

func (s *FakeSession) Frames() ([]browser.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frames, ok := s.FramesByURL[s.currentURL]; ok {
		return frames, nil
	}
	return s.FrameList, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// FakeFactory hands out sessions from a queue, or builds them with NewFunc.
type FakeFactory struct {
	NewFunc  func() (browser.Session, error)
	Sessions []*FakeSession

	mu      sync.Mutex
	created int
}

func (f *FakeFactory) NewSession() (browser.Session, error) {
	if f.NewFunc != nil {
		return f.NewFunc()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created < len(f.Sessions) {
		s := f.Sessions[f.created]
		f.created++
		return s, nil
	}
	f.created++
	return &FakeSession{}, nil
}

// Created reports how many sessions the factory has handed out.
func (f *FakeFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}
