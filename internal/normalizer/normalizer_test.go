package normalizer

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestKebab(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces", "My Great Note", "my-great-note"},
		{"already kebab", "my-note", "my-note"},
		{"empty", "", ""},
		{"only separators", " -_. !? ", ""},
		{"underscores", "snake_case_name", "snake-case-name"},
		{"camel case", "fooBarBaz", "foo-bar-baz"},
		{"pascal case", "FooBar", "foo-bar"},
		{"acronym run", "XMLHttpRequest", "xml-http-request"},
		{"all caps", "README", "readme"},
		{"punctuation runs", "Hello,   World!!!", "hello-world"},
		{"leading and trailing", "--Leading and trailing__", "leading-and-trailing"},
		{"apostrophe", "Don't Panic", "dont-panic"},
		{"curly apostrophe", "Pilot’s Log", "pilots-log"},
		{"letter digit", "note2", "note-2"},
		{"digit letter", "2024notes", "2024-notes"},
		{"date", "2024-01-15 Meeting", "2024-01-15-meeting"},
		{"ordinal", "1st Draft", "1st-draft"},
		{"ordinal upper", "22ND Street", "22nd-street"},
		{"not an ordinal", "3stars", "3-stars"},
		{"diacritics", "Café Crème", "cafe-creme"},
		{"sharp s", "Straße", "strasse"},
		{"ligature", "Æsop Fables", "aesop-fables"},
		{"cyrillic", "Привет Мир", "привет-мир"},
		{"cjk", "日本語 ノート", "日本語-ノート"},
		{"dots in base", "v1.2 notes", "v-1-2-notes"},
		{"weekly review", "Weekly Review", "weekly-review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kebab(tt.input); got != tt.want {
				t.Errorf("Kebab(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		isContainer bool
		want        string
	}{
		{"note", "My Great Note.md", false, "my-great-note.md"},
		{"canonical", "my-note.md", false, "my-note.md"},
		{"extension kept verbatim", "Scan Result.PDF", false, "scan-result.PDF"},
		{"last dot only", "Archive Backup.tar.gz", false, "archive-backup-tar.gz"},
		{"no extension", "Makefile", false, "makefile"},
		{"hidden style", ".hidden", false, ".hidden"},
		{"folder", "Project Alpha", true, "project-alpha"},
		{"folder with dot", "Project.Alpha", true, "project-alpha"},
		{"versioned folder", "v1.0", true, "v-1-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input, tt.isContainer); got != tt.want {
				t.Errorf("Normalize(%q, %v) = %q, want %q", tt.input, tt.isContainer, got, tt.want)
			}
		})
	}
}

func TestSplitExt(t *testing.T) {
	base, ext := SplitExt("notes.final.md", false)
	if base != "notes.final" || ext != ".md" {
		t.Errorf("SplitExt = (%q, %q), want (%q, %q)", base, ext, "notes.final", ".md")
	}

	base, ext = SplitExt("notes.final", true)
	if base != "notes.final" || ext != "" {
		t.Errorf("SplitExt container = (%q, %q), want (%q, %q)", base, ext, "notes.final", "")
	}
}

// Property: Kebab is idempotent
// For any string s, Kebab(Kebab(s)) == Kebab(s).
func TestKebabIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("Kebab(Kebab(s)) == Kebab(s) for any unicode string", prop.ForAll(
		func(s string) bool {
			once := Kebab(s)
			twice := Kebab(once)
			if once != twice {
				t.Logf("Kebab(%q) = %q but Kebab(%q) = %q", s, once, once, twice)
				return false
			}
			return true
		},
		gen.AnyString(),
	))

	seps := []string{" ", "_", "-", "", "'", "1st", "42", ". "}
	properties.Property("Kebab is idempotent over name-like strings", prop.ForAll(
		func(words []string, offset int) bool {
			var b strings.Builder
			for i, w := range words {
				b.WriteString(w)
				b.WriteString(seps[(i+offset)%len(seps)])
			}
			once := Kebab(b.String())
			return Kebab(once) == once
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, len(seps)-1),
	))

	properties.TestingRun(t)
}

// Property: Kebab output shape
// Output is lowercase with single hyphens and no leading or trailing hyphen.
func TestKebabOutputShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("no doubled, leading or trailing hyphens", prop.ForAll(
		func(s string) bool {
			out := Kebab(s)
			if out == "" {
				return true
			}
			if strings.HasPrefix(out, "-") || strings.HasSuffix(out, "-") {
				return false
			}
			return !strings.Contains(out, "--")
		},
		gen.AnyString(),
	))

	properties.Property("no letter with a distinct lowercase form survives", prop.ForAll(
		func(s string) bool {
			for _, r := range Kebab(s) {
				if unicode.IsUpper(r) && unicode.ToLower(r) != r {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: Normalize preserves the extension
// For any base name and extension, the normalized name ends with the original
// extension and its base name is the kebab form of the original base name.
func TestNormalizePreservesExtension(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("extension is preserved verbatim", prop.ForAll(
		func(base string, ext string) bool {
			name := base + "." + ext
			got := Normalize(name, false)
			wantExt := "." + ext
			if !strings.HasSuffix(got, wantExt) {
				t.Logf("Normalize(%q) = %q lost extension %q", name, got, wantExt)
				return false
			}
			return strings.TrimSuffix(got, wantExt) == Kebab(base)
		},
		gen.AnyString().Map(func(s string) string { return strings.ReplaceAll(s, ".", " ") }),
		gen.AlphaString(),
	))

	properties.Property("Normalize is idempotent", prop.ForAll(
		func(name string) bool {
			once := Normalize(name, false)
			return Normalize(once, false) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
