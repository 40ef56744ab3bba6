package browser

import (
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures a browser session
type LaunchOptions struct {
	// URL is the feed page to open
	URL string

	// Headless hides the browser window
	Headless bool

	// StorageState is an optional path to saved cookies and local storage (a logged-in session)
	StorageState string

	// InstallDriver downloads the Playwright driver and Chromium if missing
	InstallDriver bool

	// Logger receives navigation warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Session owns a running browser with one page open on the feed
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	Page    playwright.Page
	Doc     *Document
}

// Launch starts Chromium, opens opts.URL and installs the mutation observer
func Launch(opts LaunchOptions) (*Session, error) {
	if opts.InstallDriver {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s := &Session{pw: pw, browser: browser}

	var contextOpts playwright.BrowserNewContextOptions
	if opts.StorageState != "" {
		contextOpts.StorageStatePath = playwright.String(opts.StorageState)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.Page = page

	if _, err := page.Goto(opts.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s: %w", opts.URL, err)
	}

	s.Doc = NewDocument(page)
	if err := s.Doc.Install(); err != nil {
		s.Close()
		return nil, err
	}
	s.Doc.ReinstallOnLoad(page, opts.Logger)

	return s, nil
}

// Close shuts down the browser and the Playwright driver
func (s *Session) Close() error {
	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return firstErr
}
