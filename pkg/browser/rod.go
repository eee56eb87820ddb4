package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodConfig holds the launch settings for rod-backed sessions
type RodConfig struct {
	Headless  bool
	UserAgent string
}

// RodFactory launches one shared Chromium process and creates isolated
// browser sessions (one page tree per session) from it.
type RodFactory struct {
	cfg RodConfig
	log *logrus.Entry
}

// NewRodFactory creates a factory for rod-backed sessions
func NewRodFactory(cfg RodConfig, log *logrus.Entry) *RodFactory {
	return &RodFactory{cfg: cfg, log: log}
}

// NewSession launches a browser and opens a blank page. Each session owns
// its own browser process so a crashed renderer cannot take sibling workers
// down with it.
func (f *RodFactory) NewSession() (Session, error) {
	l := launcher.New().
		Headless(f.cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	if f.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.cfg.UserAgent}); err != nil {
			f.log.WithError(err).Warn("could not override user agent")
		}
	}

	return &rodSession{browser: b, page: page, launcher: l, log: f.log}, nil
}

type rodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	log      *logrus.Entry
}

func (s *rodSession) Navigate(url string, timeout time.Duration) error {
	page := s.page.Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		// Legacy framesets keep loading sub-frames long after the shell is
		// usable; a load timeout here is not fatal.
		s.log.WithError(err).Debug("page load wait ended early")
	}
	return nil
}

// Frames walks the frame tree breadth-first. Legacy framesets nest
// <frameset> inside <frame>, so every discovered frame page is searched
// again, bounded to avoid pathological recursion.
func (s *rodSession) Frames() ([]Frame, error) {
	const maxDepth = 3

	var out []Frame
	type queued struct {
		page  *rod.Page
		depth int
	}
	queue := []queued{{page: s.page, depth: 0}}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		els, err := next.page.Timeout(3 * time.Second).Elements("frame, iframe")
		if err != nil {
			continue
		}
		for _, el := range els {
			framePage, err := el.Frame()
			if err != nil {
				continue
			}
			name := ""
			if attr, err := el.Attribute("name"); err == nil && attr != nil {
				name = *attr
			}
			src := ""
			if attr, err := el.Attribute("src"); err == nil && attr != nil {
				src = *attr
			}
			out = append(out, &rodFrame{page: framePage, name: name, src: src})
			if next.depth+1 < maxDepth {
				queue = append(queue, queued{page: framePage, depth: next.depth + 1})
			}
		}
	}

	return out, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return err
}

type rodFrame struct {
	page *rod.Page
	name string
	src  string
}

func (f *rodFrame) Name() string { return f.name }

func (f *rodFrame) URL() string {
	if info, err := f.page.Info(); err == nil && info.URL != "" {
		return info.URL
	}
	return f.src
}

func (f *rodFrame) Text(timeout time.Duration) (string, error) {
	body, err := f.page.Timeout(timeout).Element("body")
	if err != nil {
		return "", fmt.Errorf("frame %q has no body: %w", f.name, err)
	}
	return body.Text()
}

func (f *rodFrame) HTML(timeout time.Duration) (string, error) {
	return f.page.Timeout(timeout).HTML()
}

func (f *rodFrame) Has(selector string) bool {
	has, _, err := f.page.Timeout(time.Second).Has(selector)
	return err == nil && has
}

func (f *rodFrame) Fill(selector, value string, timeout time.Duration) error {
	el, err := f.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(value)
}

func (f *rodFrame) Click(selector string, timeout time.Duration) error {
	el, err := f.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (f *rodFrame) ClickText(text string, timeout time.Duration) error {
	els, err := f.page.Timeout(timeout).Elements("a")
	if err != nil {
		return fmt.Errorf("listing links: %w", err)
	}
	want := strings.Join(strings.Fields(text), " ")
	for _, el := range els {
		got, err := el.Text()
		if err != nil {
			continue
		}
		if strings.Join(strings.Fields(got), " ") != want {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return nil
		}
		// Overlapped links in the sidebar reject real clicks; a scripted
		// click still fires the navigation handler.
		if _, err := el.Eval("() => this.click()"); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no link with text %q", text)
}

func (f *rodFrame) Links(timeout time.Duration) ([]Link, error) {
	els, err := f.page.Timeout(timeout).Elements("a")
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	links := make([]Link, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		href := ""
		if attr, err := el.Attribute("href"); err == nil && attr != nil {
			href = *attr
		}
		links = append(links, Link{Text: strings.Join(strings.Fields(text), " "), Href: href})
	}
	return links, nil
}

func (f *rodFrame) Scroll(dy int) error {
	// Scroll the window, the document and any overflowed container; the
	// sidebar's scrollable element differs between site releases.
	js := fmt.Sprintf(`() => {
		window.scrollBy(0, %d);
		document.documentElement.scrollBy(0, %d);
		if (document.body) document.body.scrollBy(0, %d);
		document.querySelectorAll('div').forEach(d => {
			const s = window.getComputedStyle(d);
			if ((s.overflowY === 'auto' || s.overflowY === 'scroll') && d.scrollHeight > d.clientHeight) {
				d.scrollBy(0, %d);
			}
		});
	}`, dy, dy, dy, dy)
	_, err := f.page.Timeout(2 * time.Second).Eval(js)
	return err
}

func (f *rodFrame) ScrollState() (ScrollState, error) {
	js := `() => ({
		top: Math.max(window.scrollY || 0, document.documentElement.scrollTop || 0, document.body ? document.body.scrollTop : 0),
		height: Math.max(document.documentElement.scrollHeight || 0, document.body ? document.body.scrollHeight : 0),
		viewport: Math.max(window.innerHeight || 0, document.documentElement.clientHeight || 0),
	})`
	res, err := f.page.Timeout(2 * time.Second).Eval(js)
	if err != nil {
		return ScrollState{}, err
	}
	return ScrollState{
		Top:      res.Value.Get("top").Int(),
		Height:   res.Value.Get("height").Int(),
		Viewport: res.Value.Get("viewport").Int(),
	}, nil
}
