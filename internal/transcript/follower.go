package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/outlinesync/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// DefaultQuietPeriod ends a generation when the file stops changing.
const DefaultQuietPeriod = time.Second

const maxReloadRetries = 3

// Follower keeps a Document in sync with a transcript file that another
// program is writing. A burst of writes is treated as a generation.
type Follower struct {
	path  string
	doc   *Document
	log   *slog.Logger
	quiet time.Duration
}

// NewFollower creates a follower for path. A zero quiet period uses
// DefaultQuietPeriod.
func NewFollower(path string, doc *Document, quiet time.Duration, log *slog.Logger) *Follower {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Follower{path: path, doc: doc, log: log.With("file", path), quiet: quiet}
}

// Load imports the file into the document.
func (f *Follower) Load() error {
	p, err := parser.ForFile(f.path)
	if err != nil {
		return err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer fh.Close()

	msgs, err := p.Parse(fh, filepath.Base(f.path))
	if err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(f.path), err)
	}
	f.doc.Replace(msgs)
	return nil
}

// Run watches the file until ctx is done. The parent directory is watched
// so editors that replace the file on save are followed too.
func (f *Follower) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	target := filepath.Clean(f.path)
	var (
		lastWrite time.Time
		retryAt   time.Time
		attempt   int
	)
	ticker := time.NewTicker(f.quiet / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.doc.CompleteGeneration()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			lastWrite = time.Now()
			f.doc.StartGeneration()
			if err := f.Load(); err != nil {
				// Usually a writer caught mid-save; try again shortly.
				f.log.Debug("reload failed, retrying", "error", err)
				attempt = 0
				retryAt = time.Now().Add(backoff(f.quiet, attempt))
			} else {
				retryAt = time.Time{}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watcher error", "error", err)

		case <-ticker.C:
			if !retryAt.IsZero() && !time.Now().Before(retryAt) {
				if err := f.Load(); err == nil {
					retryAt = time.Time{}
				} else if attempt++; attempt >= maxReloadRetries {
					f.log.Warn("reload failed", "error", err, "attempts", attempt+1)
					retryAt = time.Time{}
				} else {
					retryAt = time.Now().Add(backoff(f.quiet, attempt))
				}
			}
			if !lastWrite.IsZero() && time.Since(lastWrite) >= f.quiet {
				lastWrite = time.Time{}
				f.doc.CompleteGeneration()
				f.log.Debug("generation settled")
			}
		}
	}
}

// backoff returns the delay before reload attempt n (0-indexed): an
// eighth of the quiet period doubling per attempt, capped at the quiet
// period, plus up to 50% jitter.
func backoff(quiet time.Duration, attempt int) time.Duration {
	base := (quiet / 8) << uint(attempt)
	if base > quiet || base <= 0 {
		base = quiet
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}
