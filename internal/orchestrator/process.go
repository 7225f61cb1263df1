package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"shelver/internal/failure"
	"shelver/internal/fileutil"
	"shelver/internal/fingerprint"
	"shelver/internal/ledger"
	"shelver/internal/logging"
	"shelver/internal/taxonomy"
)

// run is the state owned by one Run call.
type run struct {
	orchestrator *Orchestrator
	store        *ledger.Store
	sources      map[ledger.SourceKind]Source
	cache        *fingerprint.Cache
	authors      *authorDates
	dryRun       bool
	summary      *Summary
}

// process handles one pending key. Only fatal errors are returned; every
// per-item problem is recorded as the item's outcome.
func (r *run) process(ctx context.Context, key ledger.Key) error {
	ctx = logging.WithItem(ctx, string(key.Kind), key.SourceID)
	logger := logging.WithContext(ctx, r.orchestrator.logger)
	r.summary.Processed++

	src, ok := r.sources[key.Kind]
	if !ok {
		return r.fail(ctx, key, fmt.Errorf("source %s is not enabled", key.Kind))
	}
	item, err := src.Load(ctx, key.SourceID)
	if err != nil {
		return r.fail(ctx, key, err)
	}
	if !r.orchestrator.accepts(item.Format) {
		r.summary.Skipped++
		reason := fmt.Sprintf("%s: %s", failure.ErrUnsupported, item.Format)
		logger.Debug("item skipped", logging.String("reason", reason))
		return r.complete(ctx, key, ledger.Skipped(reason))
	}

	fp, err := fingerprint.Identify(item.FilePath)
	if err != nil {
		return r.fail(ctx, key, err)
	}
	if original, dup := r.cache.FindDuplicate(fp); dup {
		r.summary.Duplicates++
		logger.Info("duplicate skipped",
			logging.String(logging.FieldEventType, "item_duplicate"),
			logging.String("path", item.FilePath),
			logging.String("duplicate_of", original),
		)
		return r.complete(ctx, key, ledger.Duplicate(original))
	}

	meta := r.orchestrator.resolver.Resolve(ctx, item)
	target, placement := r.orchestrator.builder.Target(taxonomy.Request{
		Metadata:   meta,
		AuthorDate: r.authors.Lookup(ctx, meta),
	}, item.Format)
	if placement.Truncated {
		logger.Debug("target path truncated", logging.String("target", target))
	}

	if r.dryRun {
		logger.Info("dry run: would copy",
			logging.String(logging.FieldEventType, "item_dry_run"),
			logging.String("source", item.FilePath),
			logging.String("target", target),
			logging.String("language", string(placement.Language)),
		)
		return r.complete(ctx, key, ledger.Success(target))
	}

	final, copied, err := fileutil.Place(item.FilePath, target)
	if err != nil {
		return r.fail(ctx, key, failure.Wrap(failure.ErrCopy, "orchestrator", "copy", target, err))
	}
	if copied {
		r.summary.Copied++
	} else {
		r.summary.Reused++
	}
	logger.Info("item placed",
		logging.String(logging.FieldEventType, "item_placed"),
		logging.String("target", final),
		logging.Bool("copied", copied),
	)
	if err := r.complete(ctx, key, ledger.Success(final)); err != nil {
		return err
	}
	r.cache.Add(fp)
	return nil
}

func (r *run) fail(ctx context.Context, key ledger.Key, cause error) error {
	r.summary.Failed++
	logging.WarnWithContext(logging.WithContext(ctx, r.orchestrator.logger), "item failed", "item_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "see shelver failed or the failure report"),
		logging.String(logging.FieldImpact, "item left out of the target library"),
	)
	return r.complete(ctx, key, ledger.Failed(cause.Error()))
}

// complete writes outcome. A record that is no longer pending is logged and
// left alone; any other ledger error stops the run.
func (r *run) complete(ctx context.Context, key ledger.Key, outcome ledger.Outcome) error {
	err := r.store.Complete(ctx, key, outcome)
	if err == nil {
		return nil
	}
	if errors.Is(err, ledger.ErrNotPending) {
		logging.WithContext(ctx, r.orchestrator.logger).Warn("item already completed", logging.Error(err))
		return nil
	}
	if failure.IsFatal(err) {
		return err
	}
	return failure.Wrap(failure.ErrLedgerWrite, "orchestrator", "complete", key.String(), err)
}

func (o *Orchestrator) accepts(format string) bool {
	if format == "txt" {
		return true
	}
	_, ok := o.formats[format]
	return ok
}
