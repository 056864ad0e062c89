// Package driver wraps go-rod behind the small page surface the resolver
// needs. Ordinary element-not-found is reported as a value; errors are
// reserved for browser faults.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"locheal/internal/logging"
)

// Options configures a browser session.
type Options struct {
	Headless bool
	// DebuggerURL attaches to an already running browser. Empty launches
	// a managed one.
	DebuggerURL string
	PageTimeout time.Duration
}

// Session owns one browser connection and the pages opened through it.
type Session struct {
	mu          sync.Mutex
	browser     *rod.Browser
	launch      *launcher.Launcher
	pageTimeout time.Duration
}

// Connect launches or attaches to a browser.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	pageTimeout := opts.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}

	controlURL := opts.DebuggerURL
	var launch *launcher.Launcher
	if controlURL == "" {
		launch = launcher.New().Headless(opts.Headless)
		url, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = url
		logging.Browser("launched browser at %s", controlURL)
	} else {
		logging.Browser("attaching to browser at %s", controlURL)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if launch != nil {
			launch.Cleanup()
		}
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return &Session{
		browser:     browser,
		launch:      launch,
		pageTimeout: pageTimeout,
	}, nil
}

// OpenPage opens a new page and waits for the initial load.
func (s *Session) OpenPage(ctx context.Context, url string) (*Page, error) {
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("session is closed")
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", url, err)
	}
	if err := page.Context(ctx).Timeout(s.pageTimeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("load page %s: %w", url, err)
	}

	logging.Browser("opened page %s", url)
	return &Page{page: page}, nil
}

// Close shuts down the browser and, when this session launched it, the
// browser process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launch != nil {
		s.launch.Cleanup()
		s.launch = nil
	}
	return err
}
