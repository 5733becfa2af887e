package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POLYGLOT_CONFIG", "")
	t.Setenv("POLYGLOT_LOG_PROVIDER", "noop")
	t.Setenv("POLYGLOT_STORAGE_DSN", "file:"+filepath.Join(t.TempDir(), "cli.db"))
}

func TestRunMigrateThenNothingPending(t *testing.T) {
	setupEnv(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, []string{"migrate"}, &out); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.HasPrefix(out.String(), "group ") {
		t.Fatalf("expected applied group, got %q", out.String())
	}

	out.Reset()
	if err := run(ctx, []string{"migrate"}, &out); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if !strings.Contains(out.String(), "no migrations") {
		t.Fatalf("expected nothing pending, got %q", out.String())
	}
}

func TestRunImportPrintsResult(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	doc := "---\ntitle: From the CLI\ntags: [cli-tag]\n---\nImported from the command line.\n"
	if err := os.WriteFile(filepath.Join(dir, "cli.md"), []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), []string{"import", "-dir", dir, "-lang", "en"}, &out); err != nil {
		t.Fatalf("import: %v", err)
	}

	var result struct {
		Created []struct {
			Path string `json:"path"`
		} `json:"created"`
		CreatedTags []string `json:"created_tags"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if len(result.Created) != 1 || result.Created[0].Path != "cli.md" {
		t.Fatalf("unexpected created list %+v", result.Created)
	}
	if len(result.CreatedTags) != 1 || result.CreatedTags[0] != "cli-tag" {
		t.Fatalf("unexpected created tags %v", result.CreatedTags)
	}
}

func TestRunSeedAndPurge(t *testing.T) {
	setupEnv(t)
	ctx := context.Background()

	if err := run(ctx, []string{"seed", "-retries", "1"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var out bytes.Buffer
	if err := run(ctx, []string{"purge", "-older-than", "1h", "-retries", "2"}, &out); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "purged 0 posts, 0 tags" {
		t.Fatalf("unexpected purge output %q", got)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	setupEnv(t)

	err := run(context.Background(), []string{"explode"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunImportRequiresLanguage(t *testing.T) {
	setupEnv(t)

	if err := run(context.Background(), []string{"import", "-dir", t.TempDir()}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected missing language error")
	}
}
