package rename

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"filekebab/internal/policy"
	"filekebab/internal/vault"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost records rename calls and rejects targets listed in taken.
type fakeHost struct {
	taken map[string]bool
	err   func(target string) error
	calls []string
}

func newFakeHost(taken ...string) *fakeHost {
	h := &fakeHost{taken: make(map[string]bool)}
	for _, p := range taken {
		h.taken[p] = true
	}
	return h
}

func (h *fakeHost) Rename(ctx context.Context, entry vault.Entry, newPath string) error {
	h.calls = append(h.calls, newPath)
	if h.err != nil {
		if err := h.err(newPath); err != nil {
			return err
		}
	}
	if h.taken[newPath] {
		return &vault.CollisionError{Path: entry.Path, Target: newPath}
	}
	return nil
}

func TestReconcile_BasicRename(t *testing.T) {
	host := newFakeHost()
	r := New(host)

	entry := vault.NewEntry("My Great Note.md", false)
	out := r.Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed(), "outcome: %s", out)
	assert.Equal(t, "my-great-note.md", out.NewPath)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"my-great-note.md"}, host.calls)
}

func TestReconcile_KeepsDirectory(t *testing.T) {
	host := newFakeHost()
	r := New(host)

	entry := vault.NewEntry("Projects/Q3 Plans/Road Map.md", false)
	out := r.Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed())
	assert.Equal(t, "Projects/Q3 Plans/road-map.md", out.NewPath)
}

func TestReconcile_AlreadyCanonical(t *testing.T) {
	host := newFakeHost()
	r := New(host)

	entry := vault.NewEntry("my-note.md", false)
	out := r.Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	assert.True(t, out.Unchanged())
	assert.Equal(t, ReasonAlreadyCanonical, out.Reason)
	assert.Empty(t, host.calls)
}

func TestReconcile_PrefixExcluded(t *testing.T) {
	host := newFakeHost()
	r := New(host)

	entry := vault.NewEntry("_draft.md", false)
	out := r.Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	assert.True(t, out.Unchanged())
	assert.Equal(t, ReasonExcluded, out.Reason)
	assert.Equal(t, policy.ReasonPrefix, out.Exclusion)
	assert.Empty(t, host.calls, "excluded entries must not reach the host")
}

func TestReconcile_HiddenExcluded(t *testing.T) {
	host := newFakeHost()
	r := New(host)

	cfg := DefaultConfig()
	cfg.Policy.IncludeOtherFiles = true
	cfg.Policy.ExcludeByPrefix = false

	entry := vault.NewEntry(".obsidian/Workspace Layout.json", false)
	out := r.Reconcile(context.Background(), entry, entry.BaseName(), cfg)

	assert.True(t, out.Unchanged())
	assert.Equal(t, policy.ReasonHidden, out.Exclusion)
	assert.Empty(t, host.calls)
}

func TestReconcile_ContainerScoping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.IncludeContainers = false

	for _, name := range []string{"Project Alpha", "project-alpha", "Some_Folder", "UPPER"} {
		host := newFakeHost()
		out := New(host).Reconcile(context.Background(), vault.NewEntry(name, true), name, cfg)

		assert.True(t, out.Unchanged(), "folder %q should be unchanged", name)
		assert.Empty(t, host.calls)
	}
}

func TestReconcile_ContainerRenamed(t *testing.T) {
	host := newFakeHost()
	entry := vault.NewEntry("Project.Alpha", true)

	out := New(host).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed())
	assert.Equal(t, "project-alpha", out.NewPath)
}

func TestReconcile_EmptyName(t *testing.T) {
	host := newFakeHost()
	entry := vault.NewEntry("!!!.md", false)

	out := New(host).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	assert.True(t, out.Unchanged())
	assert.Equal(t, ReasonEmptyName, out.Reason)
	assert.Empty(t, host.calls)
}

func TestReconcile_CollisionRetry(t *testing.T) {
	host := newFakeHost("my-note.md")
	entry := vault.NewEntry("My Note.md", false)

	out := New(host).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed(), "outcome: %s", out)
	assert.Equal(t, "my-note-1.md", out.NewPath)
	assert.Equal(t, ReasonSuffixed, out.Reason)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, []string{"my-note.md", "my-note-1.md"}, host.calls)
}

func TestReconcile_SkipsTakenSuffixes(t *testing.T) {
	host := newFakeHost("notes/my-note.md", "notes/my-note-1.md", "notes/my-note-2.md")
	entry := vault.NewEntry("notes/My Note.md", false)

	out := New(host).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed())
	assert.Equal(t, "notes/my-note-3.md", out.NewPath)
	assert.Equal(t, 4, out.Attempts)
}

func TestReconcile_RetryExhaustion(t *testing.T) {
	hostErr := errors.New("disk says no")
	host := newFakeHost()
	host.err = func(string) error { return hostErr }

	entry := vault.NewEntry("My Note.md", false)
	out := New(host).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Failed())
	assert.Equal(t, ReasonExhausted, out.Reason)
	assert.Equal(t, DefaultMaxRetries+1, out.Attempts)
	assert.Len(t, host.calls, DefaultMaxRetries+1)
	assert.Equal(t, "my-note.md", host.calls[0])
	assert.Equal(t, fmt.Sprintf("my-note-%d.md", DefaultMaxRetries), host.calls[len(host.calls)-1])

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, out.Err, &exhausted)
	assert.Equal(t, DefaultMaxRetries+1, exhausted.Attempts)
	assert.ErrorIs(t, out.Err, hostErr, "exhaustion must wrap the last host error")
}

func TestReconcile_CustomRetryBound(t *testing.T) {
	host := newFakeHost("a.md", "a-1.md", "a-2.md")
	cfg := DefaultConfig()
	cfg.MaxRetries = 2

	out := New(host).Reconcile(context.Background(), vault.NewEntry("A.md", false), "A", cfg)

	require.True(t, out.Failed())
	assert.Len(t, host.calls, 3)
	assert.True(t, vault.IsCollision(out.Err))
}

func TestReconcile_ZeroRetries(t *testing.T) {
	host := newFakeHost("a.md")
	cfg := DefaultConfig()
	cfg.MaxRetries = 0

	out := New(host).Reconcile(context.Background(), vault.NewEntry("A.md", false), "A", cfg)

	require.True(t, out.Failed())
	assert.Len(t, host.calls, 1)
}

func TestReconcile_MissingEntryStopsRetrying(t *testing.T) {
	host := newFakeHost()
	host.err = func(string) error { return fmt.Errorf("My Note.md: %w", vault.ErrEntryMissing) }

	out := New(host).Reconcile(context.Background(), vault.NewEntry("My Note.md", false), "My Note", DefaultConfig())

	require.True(t, out.Failed())
	assert.Equal(t, ReasonHostError, out.Reason)
	assert.Equal(t, 1, out.Attempts)
	assert.ErrorIs(t, out.Err, vault.ErrEntryMissing)
}

func TestReconcile_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	host := newFakeHost()
	host.err = func(string) error {
		cancel()
		return ctx.Err()
	}

	out := New(host).Reconcile(ctx, vault.NewEntry("My Note.md", false), "My Note", DefaultConfig())

	require.True(t, out.Failed())
	assert.Equal(t, 1, out.Attempts)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestReconcile_ContentDerived(t *testing.T) {
	host := newFakeHost()
	entry := vault.NewEntry("untitled.md", false)

	out := New(host).Reconcile(context.Background(), entry, "Weekly Review", DefaultConfig())

	require.True(t, out.Renamed())
	assert.Equal(t, "weekly-review.md", out.NewPath)
}

func TestReconcile_AlreadySuffixed(t *testing.T) {
	// The heading asks for weekly-review.md, which another note holds; the
	// entry already carries the first free suffix.
	host := newFakeHost("weekly-review.md")
	entry := vault.NewEntry("weekly-review-1.md", false)

	out := New(host).Reconcile(context.Background(), entry, "Weekly Review", DefaultConfig())

	assert.True(t, out.Unchanged())
	assert.Equal(t, ReasonAlreadySuffixed, out.Reason)
	assert.Equal(t, []string{"weekly-review.md"}, host.calls)
}

func TestReconcile_FilesystemHost(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "My Note.md"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-note.md"), []byte("b"), 0644))

	fs, err := vault.NewFS(dir)
	require.NoError(t, err)

	entry := vault.NewEntry("My Note.md", false)
	out := New(fs).Reconcile(context.Background(), entry, entry.BaseName(), DefaultConfig())

	require.True(t, out.Renamed(), "outcome: %s", out)
	assert.Equal(t, "my-note-1.md", out.NewPath)

	data, err := os.ReadFile(filepath.Join(dir, "my-note-1.md"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
	data, err = os.ReadFile(filepath.Join(dir, "my-note.md"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data), "the occupant must not be overwritten")
}

func TestCandidate_Name(t *testing.T) {
	c := Candidate{TargetBaseName: "my-note", Extension: ".md"}
	assert.Equal(t, "my-note.md", c.Name(0))
	assert.Equal(t, "my-note-1.md", c.Name(1))
	assert.Equal(t, "my-note-42.md", c.Name(42))

	folder := Candidate{TargetBaseName: "projects"}
	assert.Equal(t, "projects-3", folder.Name(3))
}

// Property: reconciliation preserves the extension
// Whatever the base name, a renamed entry keeps its original extension.
func TestReconcilePreservesExtension(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	cfg := DefaultConfig()
	cfg.Policy.IncludeOtherFiles = true
	cfg.Policy.ExcludeByPrefix = false

	properties.Property("extension survives reconciliation", prop.ForAll(
		func(base string, ext string) bool {
			entry := vault.NewEntry("dir/"+base+"."+ext, false)
			out := New(newFakeHost()).Reconcile(context.Background(), entry, entry.BaseName(), cfg)
			if !out.Renamed() {
				return true
			}
			return vault.NewEntry(out.NewPath, false).Ext() == "."+ext
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.AlphaString(),
	))

	properties.Property("exactly one successful rename per reconciliation", prop.ForAll(
		func(taken int) bool {
			var occupied []string
			for i := 0; i < taken; i++ {
				occupied = append(occupied, Candidate{TargetBaseName: "my-note", Extension: ".md"}.Name(i))
			}
			host := newFakeHost(occupied...)
			out := New(host).Reconcile(context.Background(), vault.NewEntry("My Note.md", false), "My Note", cfg)
			if !out.Renamed() {
				return false
			}
			return len(host.calls) == taken+1 && !host.taken[out.NewPath]
		},
		gen.IntRange(0, DefaultMaxRetries),
	))

	properties.TestingRun(t)
}
