// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/internal/config"
)

// launchProbeTimeout bounds the startup check that the browser responds.
const launchProbeTimeout = 30 * time.Second

// Manager owns the Chrome process. Every Session is a tab derived from its
// allocator context.
type Manager struct {
	logger  *zap.Logger
	browser config.BrowserConfig
	network config.NetworkConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	mu       sync.Mutex
	sessions []*Session
	closed   bool
}

// NewManager launches the browser and verifies it responds. Failures are
// wrapped with ErrSetup.
func NewManager(ctx context.Context, logger *zap.Logger, browserCfg config.BrowserConfig, networkCfg config.NetworkConfig) (*Manager, error) {
	m := &Manager{
		logger:  logger.Named("browser_manager"),
		browser: browserCfg,
		network: networkCfg,
	}
	if err := m.launch(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	return m, nil
}

func (m *Manager) launch(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator.", zap.Bool("headless", m.browser.Headless))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	probeCtx, cancelProbe := context.WithTimeout(allocCtx, launchProbeTimeout)
	defer cancelProbe()
	probeCtx, cancelTab := chromedp.NewContext(probeCtx)
	defer cancelTab()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the Chrome flags from configuration.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+12)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)

	// Later flags override the defaults, including headless.
	opts = append(opts,
		chromedp.Flag("headless", m.browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.browser.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-gpu", m.browser.Headless),
	)
	if m.browser.WindowWidth > 0 && m.browser.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(m.browser.WindowWidth, m.browser.WindowHeight))
	}
	if m.browser.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(m.browser.BinaryPath))
	}

	for _, arg := range m.browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Containers typically lack the user namespaces the sandbox needs.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}
	return opts
}

// NewSession opens a new tab.
func (m *Manager) NewSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: manager is shut down", ErrSetup)
	}

	s, err := newSession(m.allocatorCtx, m.logger, m.network)
	if err != nil {
		return nil, err
	}
	m.sessions = append(m.sessions, s)
	return s, nil
}

// Shutdown closes every tab and terminates the browser process. It is safe
// to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	m.logger.Info("Shutting down browser.", zap.Int("tabs", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.allocatorCancel()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Browser process terminated.")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Timed out waiting for browser to exit.", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
