package orchestrator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"shelver/internal/config"
	"shelver/internal/failure"
	"shelver/internal/ledger"
	"shelver/internal/logging"
	"shelver/internal/orchestrator"
	"shelver/internal/testsupport"
)

func newOrchestrator(t *testing.T, cfg *config.Config) *orchestrator.Orchestrator {
	t.Helper()

	o, err := orchestrator.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func mustRun(t *testing.T, o *orchestrator.Orchestrator, opts orchestrator.Options) orchestrator.Summary {
	t.Helper()

	summary, err := o.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func getRecord(t *testing.T, cfg *config.Config, key ledger.Key) *ledger.Record {
	t.Helper()

	store := testsupport.MustOpenLedger(t, cfg)
	rec, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s: %v", key, err)
	}
	return rec
}

func countFiles(t *testing.T, root string) int {
	t.Helper()

	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("walk %s: %v", root, err)
	}
	return count
}

func TestRunInfersJapaneseFilesystemBookFromFilename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	name := "[Tanaka Yuki] 異世界転生したらスライムだった件.epub"
	src := filepath.Join(testsupport.SourceDir(cfg), name)
	testsupport.WriteFile(t, src, 2048, 3)

	summary := mustRun(t, newOrchestrator(t, cfg), orchestrator.Options{})
	if summary.Copied != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceFilesystem, SourceID: src})
	want := filepath.Join(cfg.Paths.TargetDir, "日文", "其他", "[未知] Tanaka Yuki",
		"異世界転生したらスライムだった件", "異世界転生したらスライムだった件.epub")
	if rec.Status != ledger.StatusSuccess || rec.TargetPath != want {
		t.Fatalf("unexpected record status=%s target=%q want %q", rec.Status, rec.TargetPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
}

func TestRunPlacesCatalogBookWithAuthorDate(t *testing.T) {
	library := testsupport.WriteCalibreLibrary(t, filepath.Join(t.TempDir(), "lib"), []testsupport.CalibreBook{
		{
			ID:          12,
			Title:       "The Cuckoo's Calling",
			Authors:     []string{"Robert Galbraith"},
			Tags:        []string{"Mystery"},
			Language:    "eng",
			Series:      "Cormoran Strike",
			SeriesIndex: 1,
			PubDate:     "2013-04-18 00:00:00+00:00",
			Formats:     map[string][]byte{"EPUB": []byte("cuckoo epub")},
		},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(library), testsupport.WithoutFilesystem())

	summary := mustRun(t, newOrchestrator(t, cfg), orchestrator.Options{})
	if summary.Registered != 1 || summary.Copied != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceCatalog, SourceID: "12_EPUB"})
	want := filepath.Join(cfg.Paths.TargetDir, "英文", "Fiction", "Mystery", "[2013-04] Robert Galbraith",
		"Cormoran Strike", "01 The Cuckoo's Calling.epub")
	if rec.TargetPath != want {
		t.Fatalf("unexpected target %q want %q", rec.TargetPath, want)
	}
}

func TestRunRecordsByteIdenticalCatalogBooksAsDuplicates(t *testing.T) {
	content := []byte("identical epub payload")
	library := testsupport.WriteCalibreLibrary(t, filepath.Join(t.TempDir(), "lib"), []testsupport.CalibreBook{
		{ID: 1, Title: "First Edition", Authors: []string{"Ann Author"}, Language: "eng", Formats: map[string][]byte{"EPUB": content}},
		{ID: 2, Title: "Reissued Under Another Name", Authors: []string{"Ann Author"}, Language: "eng", Formats: map[string][]byte{"EPUB": content}},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(library), testsupport.WithoutFilesystem())

	summary := mustRun(t, newOrchestrator(t, cfg), orchestrator.Options{})
	if summary.Copied != 1 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	first := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceCatalog, SourceID: "1_EPUB"})
	second := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceCatalog, SourceID: "2_EPUB"})
	if first.IsDuplicate {
		t.Fatal("first item must not be a duplicate")
	}
	if second.Status != ledger.StatusSuccess || !second.IsDuplicate || second.DuplicateOf != first.FilePath {
		t.Fatalf("unexpected duplicate record %+v", second)
	}
	if second.TargetPath != "" {
		t.Fatalf("duplicate must not have a target, got %q", second.TargetPath)
	}
	if got := countFiles(t, cfg.Paths.TargetDir); got != 1 {
		t.Fatalf("expected one copied file, got %d", got)
	}
}

func TestRetryFailedReprocessesFixedItem(t *testing.T) {
	library := testsupport.WriteCalibreLibrary(t, filepath.Join(t.TempDir(), "lib"), []testsupport.CalibreBook{
		{ID: 7, Title: "Lost Book", Authors: []string{"Someone"}, Language: "eng", Formats: map[string][]byte{"EPUB": nil}},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(library), testsupport.WithoutFilesystem())
	o := newOrchestrator(t, cfg)
	key := ledger.Key{Kind: ledger.SourceCatalog, SourceID: "7_EPUB"}

	summary := mustRun(t, o, orchestrator.Options{})
	if summary.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", summary)
	}
	if summary.FailureReport == "" {
		t.Fatal("expected failure report path")
	}
	report, err := os.ReadFile(summary.FailureReport)
	if err != nil {
		t.Fatalf("read failure report: %v", err)
	}
	if !strings.HasPrefix(string(report), "catalog:7_EPUB | ") || !strings.Contains(string(report), "source file missing") {
		t.Fatalf("unexpected failure report %q", report)
	}
	if rec := getRecord(t, cfg, key); rec.Status != ledger.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}

	// A plain run leaves the failure alone.
	if again := mustRun(t, o, orchestrator.Options{}); again.Processed != 0 {
		t.Fatalf("failed item must not be retried without the flag, got %+v", again)
	}

	testsupport.WriteContent(t, filepath.Join(library, "Someone", "Lost Book (7)", "Lost Book - Someone.epub"), []byte("found"))
	retry := mustRun(t, o, orchestrator.Options{RetryFailed: true})
	if retry.Reset != 1 || retry.Copied != 1 {
		t.Fatalf("unexpected retry summary %+v", retry)
	}
	rec := getRecord(t, cfg, key)
	if rec.Status != ledger.StatusSuccess || rec.ErrorMessage != "" {
		t.Fatalf("expected success after retry, got %+v", rec)
	}
}

func TestDryRunLeavesRealLedgerAndTargetUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	titles := []string{"Amber", "Birch", "Cedar", "Dune", "Ember", "Fjord", "Grove", "Heath", "Inlet", "Juniper"}
	for i, title := range titles {
		testsupport.WriteFile(t, filepath.Join(testsupport.SourceDir(cfg), title+" - Writer.epub"), 4096, byte(10*i+1))
	}
	var logs bytes.Buffer
	o, err := orchestrator.New(cfg, slog.New(slog.NewJSONHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dry := mustRun(t, o, orchestrator.Options{DryRun: true})
	if dry.Processed != 10 || dry.Copied != 0 || dry.Ledger.Success != 10 {
		t.Fatalf("unexpected dry-run summary %+v", dry)
	}
	intended := 0
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if record[logging.FieldEventType] == "item_dry_run" {
			intended++
			target, _ := record["target"].(string)
			source, _ := record["source"].(string)
			if target == "" || source == "" {
				t.Fatalf("dry-run line lacks source or target: %v", record)
			}
		}
	}
	if intended != 10 {
		t.Fatalf("expected 10 intended-copy log lines, got %d", intended)
	}
	if _, err := os.Stat(cfg.Paths.TargetDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the target, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.LedgerPath()); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the real ledger, stat err=%v", err)
	}

	again := mustRun(t, o, orchestrator.Options{DryRun: true})
	if again.Processed != 10 {
		t.Fatalf("each dry run should simulate from scratch, got %+v", again)
	}

	live := mustRun(t, o, orchestrator.Options{})
	if live.Copied != 10 || live.Duplicates != 0 {
		t.Fatalf("real run after dry run should copy everything, got %+v", live)
	}
	if got := countFiles(t, cfg.Paths.TargetDir); got != 10 {
		t.Fatalf("expected 10 copied files, got %d", got)
	}
}

func TestSecondRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(testsupport.SourceDir(cfg), "Only Book - Writer.epub"), 512, 9)
	o := newOrchestrator(t, cfg)

	first := mustRun(t, o, orchestrator.Options{})
	if first.Copied != 1 {
		t.Fatalf("unexpected first summary %+v", first)
	}
	second := mustRun(t, o, orchestrator.Options{})
	if second.Registered != 0 || second.Processed != 0 {
		t.Fatalf("second run must not reprocess, got %+v", second)
	}
	if second.Ledger.Total != 1 || second.Ledger.Success != 1 {
		t.Fatalf("unexpected ledger stats %+v", second.Ledger)
	}
}

func TestRunSkipsDuplicateOfEarlierRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.SourceDir(cfg)
	testsupport.WriteFile(t, filepath.Join(dir, "a", "Original - Writer.epub"), 1024, 5)
	o := newOrchestrator(t, cfg)
	mustRun(t, o, orchestrator.Options{})

	testsupport.WriteFile(t, filepath.Join(dir, "b", "Copy Elsewhere - Writer.epub"), 1024, 5)
	summary := mustRun(t, o, orchestrator.Options{})
	if summary.Processed != 1 || summary.Duplicates != 1 {
		t.Fatalf("expected reloaded fingerprint to catch duplicate, got %+v", summary)
	}
}

func TestRunSkipsUnsupportedCatalogFormat(t *testing.T) {
	library := testsupport.WriteCalibreLibrary(t, filepath.Join(t.TempDir(), "lib"), []testsupport.CalibreBook{
		{ID: 3, Title: "Scanned", Authors: []string{"Someone"}, Formats: map[string][]byte{"PDF": []byte("%PDF")}},
		{ID: 4, Title: "Plain", Authors: []string{"Someone"}, Formats: map[string][]byte{"TXT": []byte("text")}},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(library), testsupport.WithoutFilesystem())

	summary := mustRun(t, newOrchestrator(t, cfg), orchestrator.Options{})
	if summary.Skipped != 1 || summary.Copied != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	pdf := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceCatalog, SourceID: "3_PDF"})
	if pdf.Status != ledger.StatusSkipped {
		t.Fatalf("expected skipped pdf, got %s", pdf.Status)
	}
	txt := getRecord(t, cfg, ledger.Key{Kind: ledger.SourceCatalog, SourceID: "4_TXT"})
	if want := filepath.Join(cfg.Paths.TargetDir, "TXT", "Plain.txt"); txt.TargetPath != want {
		t.Fatalf("unexpected txt target %q want %q", txt.TargetPath, want)
	}
}

func TestRunLimitDrainsInInsertionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for i, title := range []string{"Apple", "Banana", "Cherry"} {
		testsupport.WriteFile(t, filepath.Join(testsupport.SourceDir(cfg), title+".epub"), 300, byte(i+1))
	}
	o := newOrchestrator(t, cfg)

	summary := mustRun(t, o, orchestrator.Options{Limit: 2})
	if summary.Processed != 2 || summary.Ledger.Pending != 1 {
		t.Fatalf("unexpected limited summary %+v", summary)
	}
	rest := mustRun(t, o, orchestrator.Options{Resume: true})
	if rest.Registered != 0 || rest.Processed != 1 {
		t.Fatalf("resume should drain the remaining item only, got %+v", rest)
	}
}

func TestRunFailsWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(cfg.LockPath())
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	_, err := newOrchestrator(t, cfg).Run(context.Background(), orchestrator.Options{})
	if !errors.Is(err, failure.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunCanceledLeavesItemsPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	for i := range 3 {
		path := filepath.Join(testsupport.SourceDir(cfg), fmt.Sprintf("Book%d.epub", i))
		testsupport.WriteFile(t, path, 100, byte(i))
		testsupport.MustRegister(t, store, ledger.SourceFilesystem, path, path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newOrchestrator(t, cfg).Run(ctx, orchestrator.Options{Resume: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Pending != 3 {
		t.Fatalf("expected every item still pending, got %+v", stats)
	}
}

func TestPreviewWritesReportWithoutTouchingLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, title := range []string{"One - Writer", "Two - Writer", "Three - Writer"} {
		testsupport.WriteFile(t, filepath.Join(testsupport.SourceDir(cfg), title+".epub"), 64, 1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	report, rows, err := newOrchestrator(t, cfg).Preview(context.Background(), 2)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 preview rows, got %d", len(rows))
	}
	if !strings.Contains(report, "[未知] Writer") {
		t.Fatalf("expected author folder in report:\n%s", report)
	}
	written, err := os.ReadFile(cfg.PreviewReportPath())
	if err != nil || !strings.Contains(string(written), "Preview (2 items)") {
		t.Fatalf("unexpected preview file %q err=%v", written, err)
	}
	if _, err := os.Stat(cfg.LedgerPath()); !os.IsNotExist(err) {
		t.Fatalf("preview must not create the ledger, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.Paths.TargetDir); !os.IsNotExist(err) {
		t.Fatalf("preview must not create the target, stat err=%v", err)
	}
}

func TestFailureLines(t *testing.T) {
	lines := orchestrator.FailureLines([]ledger.Record{{
		Key:          ledger.Key{Kind: ledger.SourceFilesystem, SourceID: "/in/a.epub"},
		FilePath:     "/in/a.epub",
		ErrorMessage: "boom",
	}})
	if len(lines) != 1 || lines[0] != "filesystem:/in/a.epub | /in/a.epub | boom" {
		t.Fatalf("unexpected lines %v", lines)
	}
}
