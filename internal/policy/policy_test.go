package policy

import (
	"testing"

	"filekebab/internal/vault"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEvaluate(t *testing.T) {
	defaults := DefaultConfig()

	noFolders := DefaultConfig()
	noFolders.IncludeContainers = false

	allFiles := DefaultConfig()
	allFiles.IncludeOtherFiles = true

	noPrefix := DefaultConfig()
	noPrefix.ExcludeByPrefix = false

	emptyPrefix := DefaultConfig()
	emptyPrefix.ExclusionPrefix = ""

	customExt := DefaultConfig()
	customExt.NotesExtension = "txt"

	tests := []struct {
		name         string
		entry        vault.Entry
		cfg          Config
		wantExcluded bool
		wantReason   Reason
	}{
		{"plain note", vault.NewEntry("My Note.md", false), defaults, false, ReasonNone},
		{"hidden file", vault.NewEntry(".obsidian/app.json", false), defaults, true, ReasonHidden},
		{"hidden folder", vault.NewEntry(".trash", true), allFiles, true, ReasonHidden},
		{"prefix file", vault.NewEntry("_draft.md", false), defaults, true, ReasonPrefix},
		{"prefix folder contents", vault.NewEntry("_templates/Daily.md", false), defaults, true, ReasonPrefix},
		{"prefix only at path start", vault.NewEntry("notes/_draft.md", false), defaults, false, ReasonNone},
		{"prefix disabled", vault.NewEntry("_draft.md", false), noPrefix, false, ReasonNone},
		{"empty prefix matches nothing", vault.NewEntry("Note.md", false), emptyPrefix, false, ReasonNone},
		{"folder in scope", vault.NewEntry("Project Alpha", true), defaults, false, ReasonNone},
		{"folder out of scope", vault.NewEntry("Project Alpha", true), noFolders, true, ReasonContainer},
		{"attachment in notes-only mode", vault.NewEntry("Screen Shot.png", false), defaults, true, ReasonNotANote},
		{"attachment when other files on", vault.NewEntry("Screen Shot.png", false), allFiles, false, ReasonNone},
		{"extensionless file", vault.NewEntry("LICENSE", false), defaults, true, ReasonNotANote},
		{"note extension case", vault.NewEntry("Upper.MD", false), defaults, false, ReasonNone},
		{"custom notes extension", vault.NewEntry("Log.txt", false), customExt, false, ReasonNone},
		{"custom notes extension excludes md", vault.NewEntry("Log.md", false), customExt, true, ReasonNotANote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded, reason := Evaluate(tt.entry, tt.cfg)
			if excluded != tt.wantExcluded {
				t.Errorf("Evaluate(%q) excluded = %v, want %v", tt.entry.Path, excluded, tt.wantExcluded)
			}
			if reason != tt.wantReason {
				t.Errorf("Evaluate(%q) reason = %q, want %q", tt.entry.Path, reason, tt.wantReason)
			}
			if IsExcluded(tt.entry, tt.cfg) != tt.wantExcluded {
				t.Errorf("IsExcluded(%q) disagrees with Evaluate", tt.entry.Path)
			}
		})
	}
}

// genConfig generates arbitrary exclusion configurations.
func genConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.Bool(),
		gen.OneConstOf("", ".md", "md", ".txt"),
		gen.Bool(),
		gen.OneConstOf("", "_", ".", "x", "archive/"),
	).Map(func(vals []interface{}) Config {
		return Config{
			IncludeContainers: vals[0].(bool),
			IncludeOtherFiles: vals[1].(bool),
			NotesExtension:    vals[2].(string),
			ExcludeByPrefix:   vals[3].(bool),
			ExclusionPrefix:   vals[4].(string),
		}
	})
}

// Property: hidden entries are always excluded
// An entry whose path starts with "." is excluded regardless of configuration.
func TestHiddenAlwaysExcluded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("leading dot wins over any configuration", prop.ForAll(
		func(cfg Config, name string, isContainer bool) bool {
			entry := vault.NewEntry("."+name, isContainer)
			excluded, reason := Evaluate(entry, cfg)
			return excluded && reason == ReasonHidden
		},
		genConfig(),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: containers out of scope are never renamed
// When folders are disabled, every container is excluded.
func TestContainersOutOfScope(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("container excluded when folders are disabled", prop.ForAll(
		func(cfg Config, name string) bool {
			cfg.IncludeContainers = false
			return IsExcluded(vault.NewEntry(name, true), cfg)
		},
		genConfig(),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t)
}
