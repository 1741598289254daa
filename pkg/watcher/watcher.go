package watcher

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/archive"
	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
	"github.com/bft-labs/labship/pkg/protocol"
	"github.com/bft-labs/labship/pkg/state"
)

// Watcher polls source directories and ships their files. Transfers are
// strictly sequential; a Watcher must not run two cycles at once.
type Watcher struct {
	cfg       Config
	fs        afero.Fs
	clock     lifecycle.Clock
	logger    log.Logger
	dialer    Dialer
	sender    *protocol.Sender
	archive   *archive.Manager
	repo      state.Repository
	backoff   *lifecycle.Backoff
	lifecycle *lifecycle.DefaultManager

	ledger state.State
	loaded bool
}

// New creates a Watcher in StateStopped.
func New(cfg Config, opts ...Option) (*Watcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	repo := o.repo
	if repo == nil {
		if cfg.StateDir != "" {
			repo = state.NewFileRepository(o.fs, cfg.StateDir)
		} else {
			repo = state.NewMemoryRepository()
		}
	}

	backoff := lifecycle.NewBackoff(cfg.RetryDelay, cfg.MaxRetryDelay, o.clock)
	if !o.jitter {
		backoff.WithoutJitter()
	}

	return &Watcher{
		cfg:    cfg,
		fs:     o.fs,
		clock:  o.clock,
		logger: o.logger,
		dialer: o.dialer,
		sender: protocol.NewSender(protocol.SenderConfig{
			Framing:    cfg.Framing,
			FlushDelay: cfg.FlushDelay,
			IOTimeout:  cfg.IOTimeout,
			Clock:      o.clock,
		}, o.logger),
		archive: archive.NewManager(
			archive.WithFs(o.fs),
			archive.WithClock(o.clock),
			archive.WithLogger(o.logger)),
		repo:      repo,
		backoff:   backoff,
		lifecycle: lifecycle.NewManager(o.logger, o.emitter),
	}, nil
}

// Run polls until ctx is canceled, or for a single cycle in Once mode.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := w.lifecycle.TransitionTo(lifecycle.StateStarting, "Run() called"); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.lifecycle.SetCancel(cancel)

	var wake <-chan struct{}
	if w.cfg.Notify && !w.cfg.Once {
		n, err := newNotifier(w.cfg.Sources, w.cfg.Extension, w.logger)
		if err != nil {
			// Polling still covers every file.
			w.logger.Warn("filesystem notifications unavailable", log.Err(err))
		} else {
			wake = n.C()
			w.lifecycle.Go(func() { n.run(ctx) })
		}
	}

	if err := w.lifecycle.TransitionTo(lifecycle.StateRunning, "polling"); err != nil {
		return err
	}
	w.logger.Info("watcher started",
		log.Any("sources", w.cfg.Sources),
		log.String("server", w.cfg.Addr),
		log.String("framing", w.cfg.Framing.String()),
		log.Duration("poll", w.cfg.PollInterval))

	for {
		w.RunOnce(ctx)
		if w.cfg.Once || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-w.clock.After(w.cfg.PollInterval):
		case <-wake:
			w.logger.Debug("woken by filesystem event")
		}
		if ctx.Err() != nil {
			break
		}
	}

	_ = w.lifecycle.TransitionTo(lifecycle.StateStopping, "poll loop finished")
	cancel()
	if err := w.lifecycle.WaitWithTimeout(lifecycle.ShutdownTimeout); err != nil {
		_ = w.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
		return err
	}
	_ = w.lifecycle.TransitionTo(lifecycle.StateStopped, "stopped")
	return nil
}

// Stop cancels Run. It returns ErrNotRunning if Run is not active.
func (w *Watcher) Stop() error {
	if !w.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	w.lifecycle.Cancel()
	return nil
}

// State returns the lifecycle state.
func (w *Watcher) State() lifecycle.State {
	return w.lifecycle.State()
}

// RunOnce performs one pass over every source directory. A canceled ctx
// ends the pass after the current file.
func (w *Watcher) RunOnce(ctx context.Context) CycleReport {
	report := CycleReport{Started: w.clock.Now()}
	w.loadLedger(ctx)

	for _, dir := range w.cfg.Sources {
		files, err := scan(w.fs, dir, w.cfg.Extension, w.clock.Now())
		if err != nil {
			if report.ScanErrors == nil {
				report.ScanErrors = make(map[string]error)
			}
			report.ScanErrors[dir] = err
			w.logger.Error("cannot list source directory", log.String("dir", dir), log.Err(err))
			continue
		}

		for _, f := range files {
			if ctx.Err() != nil {
				break
			}
			res := w.ship(ctx, f)
			report.Files = append(report.Files, res)

			switch res.Outcome {
			case OutcomeRetry:
				w.wait(ctx)
			case OutcomeRejected:
				if !res.DeadLettered {
					w.wait(ctx)
				}
			case OutcomeSent:
				w.backoff.Reset()
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	w.pruneLedger(ctx)
	w.pruneArchives(ctx)
	report.Finished = w.clock.Now()
	if len(report.Files) > 0 {
		w.logger.Info("cycle complete",
			log.Int("sent", report.Count(OutcomeSent)),
			log.Int("retry", report.Count(OutcomeRetry)),
			log.Int("rejected", report.Count(OutcomeRejected)),
			log.Duration("took", report.Finished.Sub(report.Started)))
	}
	return report
}

func (w *Watcher) wait(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("backing off", log.Duration("delay", w.backoff.Current()))
	_ = w.backoff.Wait(ctx)
}

// ship runs one transfer attempt for f and acts on its outcome.
func (w *Watcher) ship(ctx context.Context, f domain.SourceFile) FileResult {
	res := FileResult{File: f}
	logger := w.logger.With(log.String("file", f.Path))

	n, digest, err := w.transfer(ctx, f)
	res.Bytes = n
	switch {
	case err == nil:
		res.Outcome = OutcomeSent
		logger.Info("file sent", log.Int64("bytes", n))
		w.forget(ctx, f.Path)

		rec, aerr := w.archive.ArchiveSent(f.Path, archive.Sent{Bytes: n, Digest: digest})
		res.Archive = &rec
		if aerr != nil {
			// Left in place; the next cycle sends it again.
			res.Err = aerr
		}

	case !domain.IsRetryable(err):
		res.Outcome = OutcomeRejected
		res.Err = err
		res.Rejections = w.reject(ctx, f.Path)
		logger.Warn("server rejected file",
			log.Int("rejections", res.Rejections),
			log.Int("max_rejections", w.cfg.MaxRejections),
			log.Err(err))

		if w.cfg.MaxRejections > 0 && res.Rejections >= w.cfg.MaxRejections {
			rec, aerr := w.archive.Reject(f.Path)
			res.Archive = &rec
			if aerr == nil {
				res.DeadLettered = true
				w.forget(ctx, f.Path)
				logger.Warn("file moved to dead-letter directory", log.String("dest", rec.Destination))
			}
		}

	default:
		res.Outcome = OutcomeRetry
		res.Err = err
		logger.Error("transfer failed",
			log.String("kind", domain.Classify(err).String()),
			log.Err(err))
	}
	return res
}

// transfer sends f and returns the bytes sent with their blake3 digest.
func (w *Watcher) transfer(ctx context.Context, f domain.SourceFile) (int64, []byte, error) {
	src, err := w.fs.Open(f.Path)
	if err != nil {
		return 0, nil, domain.NewError(domain.KindIO, "open source", f.Path, err)
	}
	defer src.Close()

	dctx, cancel := context.WithTimeout(ctx, w.cfg.DialTimeout)
	conn, err := w.dialer.DialContext(dctx, "tcp", w.cfg.Addr)
	cancel()
	if err != nil {
		return 0, nil, domain.NewError(domain.KindConnection, "dial", w.cfg.Addr, err)
	}
	defer conn.Close()

	h := blake3.New()
	n, err := w.sender.Send(ctx, conn, f.Name, io.TeeReader(src, h))
	if err != nil {
		return n, nil, err
	}
	return n, h.Sum(nil), nil
}

func (w *Watcher) loadLedger(ctx context.Context) {
	if w.loaded {
		return
	}
	s, err := w.repo.Load(ctx)
	if err != nil {
		w.logger.Warn("cannot load rejection ledger, starting empty", log.Err(err))
	}
	w.ledger = s
	w.loaded = true
}

func (w *Watcher) saveLedger(ctx context.Context) {
	if err := w.repo.Save(ctx, w.ledger); err != nil {
		w.logger.Warn("cannot save rejection ledger", log.Err(err))
	}
}

func (w *Watcher) reject(ctx context.Context, path string) int {
	n := w.ledger.Reject(path, w.clock.Now())
	w.saveLedger(ctx)
	return n
}

func (w *Watcher) forget(ctx context.Context, path string) {
	if w.ledger.Forget(path) {
		w.saveLedger(ctx)
	}
}

// pruneLedger drops entries for files that no longer exist, e.g. removed
// by an operator after being refused.
func (w *Watcher) pruneLedger(ctx context.Context) {
	n := w.ledger.Prune(func(path string) bool {
		_, err := w.fs.Stat(path)
		return err == nil || !errors.Is(err, os.ErrNotExist)
	})
	if n > 0 {
		w.saveLedger(ctx)
	}
}

func (w *Watcher) pruneArchives(ctx context.Context) {
	if !w.cfg.Retention.Enabled() {
		return
	}
	for _, dir := range w.cfg.Sources {
		if ctx.Err() != nil {
			return
		}
		_, _ = w.archive.Prune(ctx, dir, w.cfg.Retention)
	}
}

// Rejections returns the ledger count for path.
func (w *Watcher) Rejections(path string) int {
	return w.ledger.Count(path)
}
