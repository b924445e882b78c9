package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"glowing-telegram/internal/domain"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	doc := store.Load(context.Background())
	if doc == nil || doc.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("expected fresh default document, got %+v", doc)
	}
	if len(doc.Coins) != 0 {
		t.Fatalf("expected empty coins, got %d", len(doc.Coins))
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(dir)
	doc := store.Load(context.Background())
	if doc.SchemaVersion != domain.SchemaVersion || len(doc.Coins) != 0 {
		t.Fatalf("corrupt file should degrade to defaults, got %+v", doc)
	}
}

func TestFileStoreLoadSchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := map[string]any{"schema_version": 99, "coins": map[string]any{"BTC": map[string]any{}}}
	data, _ := json.Marshal(old)
	if err := os.WriteFile(filepath.Join(dir, stateFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(dir)
	doc := store.Load(context.Background())
	if len(doc.Coins) != 0 {
		t.Fatal("mismatched schema must be discarded, not migrated")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	doc := domain.NewStateDocument()
	cs := doc.Coin("BTC")
	cs.SetTrend(domain.TimeframeD1, domain.TrendUp)
	cs.SetLastClose(domain.TimeframeH1, time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC))
	cs.LastBuySignal = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	doc.LastDailyReportDate = "2026-08-31"

	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := store.Load(ctx)
	if !reflect.DeepEqual(doc, loaded) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", doc, loaded)
	}

	// Save(Load()) with no changes keeps the document identical.
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	again := store.Load(ctx)
	if !reflect.DeepEqual(loaded, again) {
		t.Fatal("save(load()) changed the document")
	}
}

func TestFileStoreSaveCreatesDirAndLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := NewFileStore(dir)
	if err := store.Save(context.Background(), domain.NewStateDocument()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != stateFileName {
		t.Fatalf("expected only the state file, got %v", entries)
	}
}

func TestFileStoreSaveReplacesPreviousAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	first := domain.NewStateDocument()
	first.Coin("BTC").SetTrend(domain.TimeframeD1, domain.TrendDown)
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := domain.NewStateDocument()
	second.Coin("BTC").SetTrend(domain.TimeframeD1, domain.TrendUp)
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	loaded := store.Load(ctx)
	if loaded.Coin("BTC").TrendFor(domain.TimeframeD1) != domain.TrendUp {
		t.Fatal("expected the replacement document")
	}
}
