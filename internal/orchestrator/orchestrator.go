package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/extractor"
	"shelver/internal/failure"
	"shelver/internal/fingerprint"
	"shelver/internal/ledger"
	"shelver/internal/logging"
	"shelver/internal/metadata"
	"shelver/internal/preflight"
	"shelver/internal/taxonomy"
)

// Options control one run.
type Options struct {
	DryRun bool
	// Limit caps the number of pending items drained; <= 0 drains all.
	Limit int
	// Resume skips scanning and only drains what the ledger already holds.
	Resume bool
	// RetryFailed moves failed items back to pending before draining.
	RetryFailed bool
}

// Summary reports what one run did.
type Summary struct {
	RunID      string
	DryRun     bool
	Registered int
	Processed  int
	Copied     int
	Reused     int
	Duplicates int
	Failed     int
	Skipped    int
	Reset      int64
	Canceled   bool
	Duration   time.Duration
	// Ledger holds the ledger counts after the run.
	Ledger ledger.Stats
	// FailureReport is the written report path, empty without failures.
	FailureReport string
}

// Orchestrator runs migrations for one configuration.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *metadata.Resolver
	builder  *taxonomy.Builder
	formats  map[string]struct{}
}

// New returns an Orchestrator for cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator requires config")
	}
	formats := make(map[string]struct{}, len(cfg.Sources.Formats))
	for _, f := range cfg.Sources.Formats {
		formats[f] = struct{}{}
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		resolver: metadata.NewResolver(extractor.New(), cfg.Taxonomy.PathLanguageHints, logger),
		builder:  taxonomy.NewBuilder(cfg.Paths.TargetDir, cfg.Taxonomy),
		formats:  formats,
	}, nil
}

// ledgerPath returns the ledger a run writes to.
func (o *Orchestrator) ledgerPath(dryRun bool) string {
	if dryRun {
		return o.cfg.DryRunLedgerPath()
	}
	return o.cfg.LedgerPath()
}

// Run executes one migration pass. Per-item problems are recorded in the
// ledger; the returned error is reserved for conditions that stop the batch
// (lock held, ledger write failure, configuration, cancellation).
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, o.logger)

	if err := o.cfg.EnsureDirectories(); err != nil {
		return summary, failure.Wrap(failure.ErrConfiguration, "orchestrator", "state directories", "", err)
	}
	lock := flock.New(o.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return summary, failure.Wrap(failure.ErrLocked, "orchestrator", "lock", o.cfg.LockPath(), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if err := preflight.Blocking(preflight.RunAll(ctx, o.cfg)); err != nil {
		return summary, err
	}

	if opts.DryRun && !opts.Resume {
		if err := removeLedgerFiles(o.ledgerPath(true)); err != nil {
			return summary, fmt.Errorf("reset dry-run ledger: %w", err)
		}
	}
	store, err := ledger.Open(o.ledgerPath(opts.DryRun))
	if err != nil {
		return summary, failure.Wrap(failure.ErrLedgerWrite, "orchestrator", "open ledger", o.ledgerPath(opts.DryRun), err)
	}
	defer store.Close()

	sources, cat, closeSources, err := o.openSources()
	if err != nil {
		return summary, err
	}
	defer closeSources()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("resume", opts.Resume),
		logging.Int("limit", opts.Limit),
		logging.String("ledger", store.Path()),
	)

	if opts.RetryFailed {
		reset, err := store.ResetFailed(ctx)
		if err != nil {
			return summary, err
		}
		summary.Reset = reset
		logger.Info("failed items reset to pending", logging.Int64("count", reset))
	}

	if !opts.Resume {
		registered, err := o.register(ctx, store, sources)
		summary.Registered = registered
		if err != nil {
			return summary, err
		}
	}

	r := &run{
		orchestrator: o,
		store:        store,
		sources:      make(map[ledger.SourceKind]Source, len(sources)),
		cache:        fingerprint.NewCache(),
		authors:      newAuthorDates(cat, o.logger),
		dryRun:       opts.DryRun,
		summary:      &summary,
	}
	for _, src := range sources {
		r.sources[src.Kind()] = src
	}
	if o.cfg.Run.ReloadFingerprints {
		if err := o.reloadFingerprints(ctx, store, r.cache, opts.DryRun); err != nil {
			logger.Warn("fingerprint reload failed; duplicates of earlier runs may be copied again",
				logging.Error(err))
		}
	}

	keys, err := store.PendingKeys(ctx, opts.Limit)
	if err != nil {
		return summary, fmt.Errorf("load pending items: %w", err)
	}
	logger.Info("pending items loaded", logging.Int("count", len(keys)), logging.Int("cached_fingerprints", r.cache.Len()))

	interval := o.cfg.Run.ProgressInterval
	var runErr error
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			summary.Canceled = true
			runErr = err
			logger.Info("run interrupted; remaining items stay pending", logging.Int("remaining", len(keys)-i))
			break
		}
		// The current item finishes even if the operator cancels mid-item.
		if err := r.process(context.WithoutCancel(ctx), key); err != nil {
			runErr = err
			break
		}
		if interval > 0 && (i+1)%interval == 0 {
			logger.Info("progress",
				logging.String(logging.FieldEventType, "run_progress"),
				logging.Int("done", i+1),
				logging.Int("total", len(keys)),
				logging.Int("copied", summary.Copied),
				logging.Int("duplicates", summary.Duplicates),
				logging.Int("failed", summary.Failed),
			)
		}
	}

	if err := o.finish(context.WithoutCancel(ctx), store, &summary, logger); err != nil && runErr == nil {
		runErr = err
	}
	summary.Duration = time.Since(started)
	msg := "run finished"
	if opts.DryRun {
		msg = "dry run finished"
	}
	logger.Info(msg,
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("copied", summary.Copied),
		logging.Int("reused", summary.Reused),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("ledger_total", summary.Ledger.Total),
		logging.Int("ledger_success", summary.Ledger.Success),
		logging.Int("ledger_failed", summary.Ledger.Failed),
		logging.Int("ledger_pending", summary.Ledger.Pending),
		logging.Duration("duration", summary.Duration),
	)
	return summary, runErr
}

func (o *Orchestrator) register(ctx context.Context, store *ledger.Store, sources []Source) (int, error) {
	registered := 0
	for _, src := range sources {
		seen, added := 0, 0
		err := src.Scan(ctx, func(entry ledger.Entry) error {
			seen++
			created, err := store.Register(ctx, entry)
			if err != nil {
				return err
			}
			if created {
				added++
			}
			return nil
		})
		registered += added
		if err != nil {
			return registered, fmt.Errorf("scan %s: %w", src.Kind(), err)
		}
		o.logger.Info("source scanned",
			logging.String(logging.FieldSourceKind, string(src.Kind())),
			logging.Int("found", seen),
			logging.Int("new", added),
		)
	}
	return registered, nil
}

// reloadFingerprints seeds cache with files placed by earlier real runs
// whose source still exists. Dry runs read the real ledger when one exists.
func (o *Orchestrator) reloadFingerprints(ctx context.Context, store *ledger.Store, cache *fingerprint.Cache, dryRun bool) error {
	if dryRun {
		path := o.cfg.LedgerPath()
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		primary, err := ledger.Open(path)
		if err != nil {
			return err
		}
		defer primary.Close()
		store = primary
	}

	records, err := store.Succeeded(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fp, err := fingerprint.Identify(rec.FilePath)
		if err != nil {
			continue
		}
		cache.Add(fp)
	}
	return nil
}

func (o *Orchestrator) openSources() ([]Source, *catalog.Catalog, func(), error) {
	var (
		sources []Source
		cat     *catalog.Catalog
	)
	if o.cfg.Sources.Catalog {
		var err error
		cat, err = catalog.Open(o.cfg.Paths.CalibreLibrary, o.cfg.Paths.CalibreDB)
		if err != nil {
			return nil, nil, func() {}, failure.Wrap(failure.ErrConfiguration, "orchestrator", "open catalog", o.cfg.Paths.CalibreDB, err)
		}
		sources = append(sources, NewCatalogSource(cat))
	}
	if o.cfg.Sources.Filesystem && len(o.cfg.Paths.SourceDirs) > 0 {
		sources = append(sources, NewFilesystemSource(o.cfg.Paths.SourceDirs, o.cfg.Sources.Formats, o.logger))
	}
	closer := func() {
		if cat != nil {
			_ = cat.Close()
		}
	}
	return sources, cat, closer, nil
}

func (o *Orchestrator) finish(ctx context.Context, store *ledger.Store, summary *Summary, logger *slog.Logger) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("ledger stats: %w", err)
	}
	summary.Ledger = stats
	if stats.Failed == 0 {
		return nil
	}

	failed, err := store.Failed(ctx)
	if err != nil {
		return fmt.Errorf("load failed items: %w", err)
	}
	lines := FailureLines(failed)
	for _, line := range lines {
		logger.Warn("failed item", logging.String("item", line))
	}
	path := o.cfg.FailureReportPath()
	if err := writeLines(path, lines); err != nil {
		logger.Warn("failed to write failure report", logging.String("path", path), logging.Error(err))
		return nil
	}
	summary.FailureReport = path
	return nil
}

func removeLedgerFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
