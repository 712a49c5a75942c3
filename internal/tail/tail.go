// Package tail drives a deserializer.Deserializer against a single
// growing IR file, re-invoking Step as new bytes are appended.
// Grounded on the teacher's internal/ingester/tail/ingester.go
// (fsnotify watch + poll-ticker fallback), simplified from its
// multi-file glob-discovery-plus-bookmark-persistence design to the
// one-stream-per-invocation shape spec.md's deserializer model calls
// for: kvirsearch follows exactly one IR file per `tail` invocation,
// so there is no multi-file bookkeeping and nothing to persist across
// process restarts — restarting the command re-decodes from the top
// of the file, as re-reading a schema tree from scratch is cheap and
// always correct.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"kvirsearch/internal/deserializer"
	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
)

// TreeBinder is an optional extension a deserializer.UnitHandler may
// implement to receive the live schema trees once Run constructs its
// Deserializer, e.g. to wire them into an eval.Evaluator before the
// first Step call — tail.Run builds the Deserializer internally, so
// this is the handler's only chance to see the trees before stepping
// begins.
type TreeBinder interface {
	BindTrees(autoTree, userTree *schema.Tree)
}

// defaultPollInterval is the fallback re-check cadence used alongside
// fsnotify, since fsnotify is known to miss events on some network
// filesystems (the same reasoning the teacher's ingester documents
// for its own poll ticker).
const defaultPollInterval = 2 * time.Second

// Follower drives one IR file's Deserializer forward as the file
// grows, blocking between units rather than returning EOF.
type Follower struct {
	path         string
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option customizes a Follower.
type Option func(*Follower)

// WithPollInterval overrides the fsnotify-miss fallback poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(f *Follower) { f.pollInterval = d }
}

// WithLogger attaches a component logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Follower) { f.logger = l }
}

// NewFollower builds a Follower over path, which need not exist yet —
// Run waits for it to be created.
func NewFollower(path string, opts ...Option) *Follower {
	f := &Follower{
		path:         path,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run opens path, decodes its preamble, builds a Deserializer over a
// blocking reader, and steps it until ctx is cancelled or the stream
// reaches EndOfStream. Step errors other than context cancellation
// are returned; a *kverrors.HandlerError aborts only the unit that
// produced it, per deserializer's own step contract, so Run keeps
// going rather than returning on one.
func Run(ctx context.Context, path string, res *resolver.Resolver, handler deserializer.UnitHandler, opts ...Option) error {
	f := NewFollower(path, opts...)
	return f.Run(ctx, res, handler)
}

func (f *Follower) Run(ctx context.Context, res *resolver.Resolver, handler deserializer.UnitHandler) error {
	file, err := waitForFile(ctx, f.path, f.pollInterval)
	if err != nil {
		return err
	}
	defer file.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tail: new watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		f.logger.Warn("failed to watch directory", "dir", filepath.Dir(f.path), "error", err)
	}

	wake := make(chan struct{}, 1)
	go f.pumpWakeups(ctx, watcher, wake)

	br := &blockingReader{ctx: ctx, file: file, wake: wake}
	ir := irproto.NewReader(br)

	enc, err := irproto.GetEncodingType(ir)
	if err != nil {
		return fmt.Errorf("tail: decode encoding type: %w", err)
	}
	if _, err := irproto.DeserializePreamble(ir, nil); err != nil {
		return fmt.Errorf("tail: decode preamble: %w", err)
	}

	d := deserializer.New(ir, enc, res, handler)
	if tb, ok := handler.(TreeBinder); ok {
		tb.BindTrees(d.AutoGenTree(), d.UserGenTree())
	}
	for !d.Finished() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := d.Step(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var herr *kverrors.HandlerError
			if errors.As(err, &herr) {
				f.logger.Warn("tail: unit handler failed, continuing", "error", err)
				continue
			}
			return fmt.Errorf("tail: step: %w", err)
		}
	}
	return nil
}

func waitForFile(ctx context.Context, path string, pollInterval time.Duration) (*os.File, error) {
	for {
		f, err := os.Open(path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("tail: open %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (f *Follower) pumpWakeups(ctx context.Context, watcher *fsnotify.Watcher, wake chan<- struct{}) {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) && event.Name == f.path {
				nonBlockingSend(wake)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("fsnotify error", "error", err)
		case <-ticker.C:
			nonBlockingSend(wake)
		}
	}
}

func nonBlockingSend(wake chan<- struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// blockingReader adapts a growing *os.File to io.Reader by blocking
// on EOF instead of returning it, waking up on wake to retry. Because
// an IR file is append-only while being tailed, the file's read
// cursor never needs to rewind: a retried Read simply picks up any
// bytes written since the last attempt.
type blockingReader struct {
	ctx  context.Context
	file *os.File
	wake <-chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	for {
		n, err := r.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return n, err
		}
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case <-r.wake:
		}
	}
}
