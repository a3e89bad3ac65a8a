package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filekebab/internal/config"
	"filekebab/internal/dispatch"
	"filekebab/internal/journal"
	"filekebab/internal/rename"
	"filekebab/internal/vault"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func exists(root, rel string) bool {
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// sampleVault lays out a vault exercising every exclusion rule.
func sampleVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Meeting Notes.md":         "",
		"Projects/Q3 Plan.md":      "",
		"_templates/Daily Note.md": "",
		"already-kebab.md":         "",
		"Photo 1.PNG":              "",
		".obsidian/app.json":       "{}",
	})
	return root
}

func newOrchestrator(t *testing.T, root string, settings config.Settings, opts ...Option) *Orchestrator {
	t.Helper()
	v, err := vault.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	store := config.NewStore(config.DefaultPath(root), settings)
	return New(v, store, dispatch.New(store, rename.New(v)), opts...)
}

func TestRun_SweepsVault(t *testing.T) {
	root := sampleVault(t)
	o := newOrchestrator(t, root, config.Defaults())

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"meeting-notes.md",
		"projects/q3-plan.md",
		"_templates/Daily Note.md",
		"already-kebab.md",
		"Photo 1.PNG",
		".obsidian/app.json",
	} {
		if !exists(root, want) {
			t.Errorf("expected %s after sweep", want)
		}
	}
	for _, gone := range []string{"Meeting Notes.md", "Projects"} {
		if exists(root, gone) {
			t.Errorf("%s should have been renamed", gone)
		}
	}

	if result.Scanned != 7 {
		t.Errorf("Scanned = %d, want 7", result.Scanned)
	}
	if len(result.Renamed) != 3 {
		t.Errorf("Renamed = %d, want 3: %v", len(result.Renamed), result.Renamed)
	}
	if len(result.Excluded) != 3 {
		t.Errorf("Excluded = %d, want 3", len(result.Excluded))
	}
	if len(result.Unchanged) != 1 || result.Unchanged[0].Reason != rename.ReasonAlreadyCanonical {
		t.Errorf("Unchanged = %v, want already-kebab.md as canonical", result.Unchanged)
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %v, want none", result.Failed)
	}
}

func TestRun_FoldersAfterContents(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Area One/Sub Area/Deep Note.md": "",
	})
	o := newOrchestrator(t, root, config.Defaults())

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !exists(root, "area-one/sub-area/deep-note.md") {
		t.Error("every level should be renamed in one sweep")
	}
}

func TestRun_FoldersOutOfScope(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"My Folder/My Note.md": ""})

	settings := config.Defaults()
	settings.IncludeFolders = false
	o := newOrchestrator(t, root, settings)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !exists(root, "My Folder/my-note.md") {
		t.Error("notes should be renamed while their folder keeps its name")
	}
}

func TestRun_CollisionGetsSuffix(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"My Note.md": "first",
		"my-note.md": "second",
	})
	o := newOrchestrator(t, root, config.Defaults())

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Renamed) != 1 {
		t.Fatalf("Renamed = %v, want 1", result.Renamed)
	}
	out := result.Renamed[0]
	if out.NewPath != "my-note-1.md" || out.Reason != rename.ReasonSuffixed {
		t.Errorf("outcome = %+v, want suffixed my-note-1.md", out)
	}
	data, err := os.ReadFile(filepath.Join(root, "my-note.md"))
	if err != nil || string(data) != "second" {
		t.Error("the existing canonical file must not be overwritten")
	}
}

func TestRun_HeadingDerivedNames(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"untitled.md":   "---\ntitle: ignored\n---\n# Weekly Review\n\nbody",
		"No Heading.md": "just text",
		"Image One.png": "",
	})

	settings := config.Defaults()
	settings.UseFirstHeading = true
	settings.IncludeOtherFiles = true
	o := newOrchestrator(t, root, settings)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, want := range []string{"weekly-review.md", "no-heading.md", "image-one.png"} {
		if !exists(root, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestRun_Journal(t *testing.T) {
	root := sampleVault(t)
	journalDir := t.TempDir()

	w, err := journal.NewWriter(journal.Config{Directory: journalDir})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	v, err := vault.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	store := config.NewStore(config.DefaultPath(root), config.Defaults())
	d := dispatch.New(store, rename.New(v), dispatch.WithRecorder(w))
	o := New(v, store, d, WithJournal(w))

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}

	records, err := journal.NewReader(journalDir).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected RUN_START + 3 renames + RUN_END, got %d records", len(records))
	}
	if records[0].EventType != journal.EventRunStart || records[0].Metadata["mode"] != string(journal.ModeSweep) {
		t.Errorf("first record = %+v, want sweep RUN_START", records[0])
	}
	last := records[len(records)-1]
	if last.EventType != journal.EventRunEnd || last.Metadata["renamed"] != "3" {
		t.Errorf("last record = %+v, want RUN_END with 3 renamed", last)
	}
	for _, rec := range records {
		if rec.RunID != result.RunID {
			t.Errorf("record %s carries run %s, want %s", rec.EventType, rec.RunID, result.RunID)
		}
	}
}

type progressLog struct {
	total   int
	updates int
	ended   bool
}

func (p *progressLog) StartProgress(total int)    { p.total = total }
func (p *progressLog) UpdateProgress(int, string) { p.updates++ }
func (p *progressLog) EndProgress()               { p.ended = true }

func TestRun_Progress(t *testing.T) {
	root := sampleVault(t)
	p := &progressLog{}
	o := newOrchestrator(t, root, config.Defaults(), WithProgress(p))

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if p.total != 7 || p.updates != 7 || !p.ended {
		t.Errorf("progress = %+v, want 7/7 and ended", p)
	}
}

func TestRun_Cancelled(t *testing.T) {
	root := sampleVault(t)
	o := newOrchestrator(t, root, config.Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if result == nil || len(result.Renamed) != 0 {
		t.Errorf("cancelled sweep should rename nothing, got %+v", result)
	}
	if !exists(root, "Meeting Notes.md") {
		t.Error("cancelled sweep should leave the vault untouched")
	}
}

// cancelOnUpdate cancels the sweep as soon as the first entry is reported.
type cancelOnUpdate struct {
	cancel context.CancelFunc
}

func (c *cancelOnUpdate) StartProgress(int)          {}
func (c *cancelOnUpdate) UpdateProgress(int, string) { c.cancel() }
func (c *cancelOnUpdate) EndProgress()               {}

func TestRun_CancelFinishesDispatchedEntry(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"A Note.md": "", "B Note.md": ""})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := newOrchestrator(t, root, config.Defaults(), WithProgress(&cancelOnUpdate{cancel: cancel}))

	result, err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("expected a partial result")
	}
	if len(result.Failed) != 0 {
		t.Errorf("the entry in flight must not fail on cancellation, got %+v", result.Failed)
	}
	if len(result.Renamed) != 1 || !exists(root, "a-note.md") {
		t.Errorf("expected the first entry renamed, got %+v", result.Renamed)
	}
	if !exists(root, "B Note.md") {
		t.Error("entries after the cancellation should be left alone")
	}
}

func TestRun_MissingVault(t *testing.T) {
	root := t.TempDir()
	o := newOrchestrator(t, root, config.Defaults())
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := o.Run(context.Background()); err == nil {
		t.Error("expected an error for a missing vault")
	}
}

func TestRunFromVault(t *testing.T) {
	root := sampleVault(t)

	summary, err := RunFromVault(context.Background(), root, config.Defaults())
	if err != nil {
		t.Fatalf("RunFromVault failed: %v", err)
	}
	if summary.Renamed != 3 || summary.Scanned != 7 {
		t.Errorf("summary = %+v", summary)
	}
}

// Feature: vault-sweep, Property 2: Sweep Idempotence
// A second sweep over a swept vault renames nothing and fails nothing.
func TestSweepIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	genName := gen.SliceOfN(2, gen.OneConstOf("Meeting", "notes", "Q3", "Plan", "draft", "Idea", "my-note", "Café")).
		Map(func(words []string) string { return strings.Join(words, " ") })

	properties.Property("second sweep is a no-op", prop.ForAll(
		func(names []string, folders []bool) bool {
			root := t.TempDir()
			files := make(map[string]string)
			for i, name := range names {
				rel := name + ".md"
				if i < len(folders) && folders[i] {
					rel = name + "/" + rel
				}
				files[rel] = ""
			}
			writeFiles(t, root, files)

			first := newOrchestrator(t, root, config.Defaults())
			if _, err := first.Run(context.Background()); err != nil {
				t.Logf("first sweep: %v", err)
				return false
			}

			second := newOrchestrator(t, root, config.Defaults())
			result, err := second.Run(context.Background())
			if err != nil {
				t.Logf("second sweep: %v", err)
				return false
			}
			if len(result.Renamed) != 0 || len(result.Failed) != 0 {
				t.Logf("second sweep changed the vault: renamed=%v failed=%v", result.Renamed, result.Failed)
				return false
			}
			return true
		},
		gen.SliceOfN(5, genName),
		gen.SliceOfN(5, gen.Bool()),
	))

	properties.TestingRun(t)
}
