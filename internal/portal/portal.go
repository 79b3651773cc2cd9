package portal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
)

const (
	// AgendaMarker is the panel title shown once the agenda events have loaded.
	AgendaMarker = "Eventos (Testes, trabalhos, atividades,...)"
	// ScreenshotFile is the default name of the failure screenshot.
	ScreenshotFile = "error_screenshot.png"

	usernameSelector = `[data-ng-model="userName"]`
	passwordSelector = `[data-ng-model="userPassword"]`

	windowWidth  = 1070
	windowHeight = 693

	screenshotTimeout = 15 * time.Second
)

var (
	// ErrSession is matched by every *SessionError.
	ErrSession = errors.New("portal session failed")
	// ErrMissingCredentials is returned by NewSession when username or password is empty.
	ErrMissingCredentials = errors.New("portal username and password are required")
)

// SessionError reports the navigation step that failed.
type SessionError struct {
	Step string
	// Screenshot is the path of the saved failure screenshot, if any.
	Screenshot string
	Err        error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("portal step %q: %v", e.Step, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return target == ErrSession
}

// Options configures a Session.
type Options struct {
	LoginURL string
	Username string
	Password string
	// RemoteURL is a DevTools endpoint (ws:// or http://) of a running browser.
	RemoteURL      string
	Headless       bool
	Wait           time.Duration
	Timeout        time.Duration
	UserAgent      string
	ScreenshotPath string
}

// OptionsFromConfig builds session options from the portal configuration.
func OptionsFromConfig(cfg config.PortalConfig, screenshotPath string) Options {
	return Options{
		LoginURL:       cfg.LoginURL(),
		Username:       cfg.Username,
		Password:       cfg.Password,
		RemoteURL:      cfg.RemoteURL,
		Headless:       cfg.Headless,
		Wait:           cfg.Wait(),
		Timeout:        cfg.Timeout(),
		UserAgent:      cfg.UserAgent,
		ScreenshotPath: screenshotPath,
	}
}

// Session fetches the agenda page from the portal.
type Session struct {
	opts Options
}

// NewSession validates opts and returns a Session.
func NewSession(opts Options) (*Session, error) {
	if opts.LoginURL == "" {
		return nil, errors.New("portal login URL is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, ErrMissingCredentials
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Minute
	}
	return &Session{opts: opts}, nil
}

type step struct {
	name   string
	action chromedp.Action
}

// FetchAgenda signs in, navigates to the agenda and returns the page HTML.
func (s *Session) FetchAgenda(ctx context.Context) ([]byte, error) {
	start := time.Now()

	allocCtx, cancelAlloc := s.allocator(ctx)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.opts.Timeout)
	defer cancelRun()

	var page string
	for _, st := range s.steps(&page) {
		logger.Info("Portal step", logger.Fields{"step": st.name})
		if err := chromedp.Run(runCtx, st.action); err != nil {
			sessErr := &SessionError{Step: st.name, Err: err}
			sessErr.Screenshot = s.screenshot(browserCtx)
			logger.IncrCounter("portal.errors")
			return nil, sessErr
		}
	}

	logger.RecordTiming("portal.fetch", time.Since(start))
	logger.Info("Agenda page captured", logger.Fields{"bytes": len(page)})
	return []byte(page), nil
}

// allocator connects to the remote browser when configured, otherwise it
// starts a local one.
func (s *Session) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RemoteURL != "" {
		logger.Info("Connecting to remote browser", logger.Fields{"remote_url": s.opts.RemoteURL})
		return chromedp.NewRemoteAllocator(ctx, s.opts.RemoteURL)
	}
	return chromedp.NewExecAllocator(ctx, s.execOptions()...)
}

func (s *Session) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(windowWidth, windowHeight),
	)
	if s.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.opts.UserAgent))
	}
	return opts
}

// steps lists the navigation from the login page to the captured agenda.
func (s *Session) steps(page *string) []step {
	return []step{
		{"open login page", chromedp.Navigate(s.opts.LoginURL)},
		{"wait for login form", chromedp.WaitVisible(usernameSelector, chromedp.ByQuery)},
		{"enter credentials", chromedp.Tasks{
			chromedp.Click(usernameSelector, chromedp.ByQuery),
			chromedp.SendKeys(usernameSelector, s.opts.Username, chromedp.ByQuery),
			chromedp.SendKeys(passwordSelector, s.opts.Password, chromedp.ByQuery),
			chromedp.SendKeys(passwordSelector, kb.Enter, chromedp.ByQuery),
		}},
		{"open activities menu", chromedp.Tasks{
			chromedp.WaitVisible(linkXPath("ATIVIDADES"), chromedp.BySearch),
			chromedp.Click(linkXPath("ATIVIDADES"), chromedp.BySearch),
		}},
		{"open agenda", chromedp.Tasks{
			chromedp.WaitVisible(linkXPath("Agenda"), chromedp.BySearch),
			chromedp.Click(linkXPath("Agenda"), chromedp.BySearch),
		}},
		{"let agenda load", chromedp.Sleep(s.opts.Wait)},
		{"wait for events panel", chromedp.WaitVisible(markerXPath(AgendaMarker), chromedp.BySearch)},
		{"capture page", chromedp.OuterHTML("html", page, chromedp.ByQuery)},
	}
}

// screenshot saves the current page and returns the file path, or "" when
// no path is configured or the capture fails.
func (s *Session) screenshot(browserCtx context.Context) string {
	if s.opts.ScreenshotPath == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(browserCtx, screenshotTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		logger.Warn("Could not capture failure screenshot", logger.Fields{"error": err.Error()})
		return ""
	}
	if err := os.WriteFile(s.opts.ScreenshotPath, buf, 0644); err != nil {
		logger.Warn("Could not save failure screenshot", logger.Fields{
			"path":  s.opts.ScreenshotPath,
			"error": err.Error(),
		})
		return ""
	}

	logger.Info("Saved failure screenshot", logger.Fields{"path": s.opts.ScreenshotPath})
	return s.opts.ScreenshotPath
}

// linkXPath matches an anchor by its visible text.
func linkXPath(text string) string {
	return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(text))
}

// markerXPath matches the innermost div whose text contains text.
func markerXPath(text string) string {
	lit := xpathLiteral(text)
	return fmt.Sprintf(`//div[contains(., %s) and not(.//div[contains(., %s)])]`, lit, lit)
}

// xpathLiteral quotes s for use inside an XPath 1.0 expression.
func xpathLiteral(s string) string {
	switch {
	case !strings.ContainsRune(s, '\''):
		return "'" + s + "'"
	case !strings.ContainsRune(s, '"'):
		return `"` + s + `"`
	}

	pieces := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(pieces))
	for i, p := range pieces {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
