// Package screenshot stores page captures for monkey actions. Captures of
// failed actions go under errors/, successful ones under actions/.
package screenshot

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	actionsDir  = "actions"
	errorsDir   = "errors"
	maxPartLen  = 30
	unknownPart = "unknown"
)

// Capturer is the part of a page a Store needs.
type Capturer interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Store writes PNG captures beneath a base directory.
type Store struct {
	fs     afero.Fs
	base   string
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	count int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used in file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store rooted at base on fs.
func New(fs afero.Fs, base string, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		fs:     fs,
		base:   base,
		logger: logger.Named("screenshot"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture takes a screenshot of page after the step named label (an action
// kind, or "page_load") on pageURL. A non-empty errMsg marks a failure
// capture. Capture failures are logged and reported through ok; they never
// interrupt the run.
func (s *Store) Capture(ctx context.Context, page Capturer, label, pageURL, errMsg string) (path string, ok bool) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		s.logger.Warn("Screenshot capture failed.", zap.String("label", label), zap.Error(err))
		return "", false
	}

	path, err = s.write(s.pathFor(label, pageURL, errMsg), data)
	if err != nil {
		s.logger.Warn("Failed to save screenshot.", zap.String("path", path), zap.Error(err))
		return "", false
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	if errMsg != "" {
		s.logger.Info("Error screenshot saved.", zap.String("path", path))
	} else {
		s.logger.Debug("Action screenshot saved.", zap.String("path", path))
	}
	return path, true
}

// Count returns the number of screenshots written.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.base
}

func (s *Store) pathFor(label, pageURL, errMsg string) string {
	t := s.now()
	stamp := fmt.Sprintf("%s_%03d", t.Format("150405"), t.Nanosecond()/int(time.Millisecond))
	domain := Domain(pageURL)
	if errMsg != "" {
		name := fmt.Sprintf("%s_error_%s_%s_%s.png", stamp, Clean(label), Clean(errMsg), domain)
		return filepath.Join(s.base, errorsDir, name)
	}
	name := fmt.Sprintf("%s_%s_%s.png", stamp, Clean(label), domain)
	return filepath.Join(s.base, actionsDir, name)
}

// write stores data at path, adding a numeric suffix when the name is taken,
// and returns the path actually used.
func (s *Store) write(path string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	final := path
	for i := 2; ; i++ {
		exists, err := afero.Exists(s.fs, final)
		if err != nil {
			return final, err
		}
		if !exists {
			break
		}
		final = strings.TrimSuffix(path, ".png") + fmt.Sprintf("_%d.png", i)
	}
	return final, afero.WriteFile(s.fs, final, data, 0o644)
}

// Domain returns the host of rawURL without a leading "www.", cleaned for
// use in a file name.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return unknownPart
	}
	return Clean(strings.TrimPrefix(u.Host, "www."))
}

// Clean replaces characters that are unsafe in file names with underscores
// and truncates the result to 30 characters.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return unknownPart
	}
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) || r == ' ' || r < 0x20 {
			return '_'
		}
		return r
	}, text)
	runes := []rune(cleaned)
	if len(runes) > maxPartLen {
		runes = runes[:maxPartLen]
	}
	return string(runes)
}
