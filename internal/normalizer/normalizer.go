// Package normalizer handles entry name normalization for filekebab.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ligatures maps Latin letters that have no canonical decomposition to their
// ASCII spelling.
var ligatures = map[rune]string{
	'ß': "ss", 'ẞ': "ss",
	'æ': "ae", 'Æ': "ae",
	'œ': "oe", 'Œ': "oe",
	'ø': "o", 'Ø': "o",
	'đ': "d", 'Đ': "d",
	'ð': "d", 'Ð': "d",
	'ħ': "h", 'Ħ': "h",
	'ı': "i",
	'ł': "l", 'Ł': "l",
	'þ': "th", 'Þ': "th",
	'ŀ': "l", 'Ŀ': "l",
	'ŉ': "n",
	'ĸ': "k",
	'ſ': "s",
}

// Kebab rewrites a raw name into its kebab-case form: lowercase words joined
// by single hyphens. Spaces, underscores, punctuation runs, camelCase
// boundaries and letter/digit boundaries separate words. Apostrophes are
// dropped and Latin diacritics are folded to ASCII.
//
// Kebab is idempotent: Kebab(Kebab(s)) == Kebab(s).
//
// Examples:
//   - "My Great Note" -> "my-great-note"
//   - "fooBar_baz"    -> "foo-bar-baz"
//   - "XMLHttpRequest" -> "xml-http-request"
//   - "Don't Panic!"  -> "dont-panic"
func Kebab(name string) string {
	words := Words(name)
	for i, w := range words {
		words[i] = fold(w)
	}
	return strings.Join(words, "-")
}

// Normalize returns the canonical name for an entry name: the base name is
// rewritten with Kebab and the extension is preserved verbatim. Containers
// have no extension, so the whole name is rewritten.
func Normalize(name string, isContainer bool) string {
	base, ext := SplitExt(name, isContainer)
	return Kebab(base) + ext
}

// SplitExt splits a name into base name and extension. The extension is the
// substring from the last "." of the name, or empty. Containers never carry
// an extension.
func SplitExt(name string, isContainer bool) (base, ext string) {
	if isContainer {
		return name, ""
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Words splits a raw name into words without changing their case.
func Words(name string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(strings.Map(func(r rune) rune {
		if isApostrophe(r) {
			return -1
		}
		return r
	}, name))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isWordRune(r) {
			flush()
			continue
		}
		if len(cur) > 0 && isDigit(lastNonMark(cur)) && ordinalAt(runes, i) {
			// "1st", "22nd": the suffix closes the word.
			cur = append(cur, r, runes[i+1])
			flush()
			i++
			continue
		}
		if len(cur) > 0 && boundary(cur, runes, i) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// boundary reports whether a new word starts at runes[i], given the runes
// already collected for the current word.
func boundary(cur []rune, runes []rune, i int) bool {
	r := runes[i]
	prev := lastNonMark(cur)
	if prev < 0 || unicode.IsMark(r) {
		return false
	}

	switch {
	case isDigit(prev) && unicode.IsLetter(r):
		return true
	case unicode.IsLetter(prev) && isDigit(r):
		return true
	case isUpper(r) && isLower(prev):
		return true
	case isUpper(prev) && isUpper(r):
		// "XMLHttp": the last capital of a run starts the next word when a
		// lowercase letter follows it.
		next := nextNonMark(runes, i+1)
		return next >= 0 && isLower(next)
	}
	return false
}

// ordinalAt reports whether runes[i:] begins an English ordinal suffix that
// ends the current word ("1st", "22nd", "3rd", "4th").
func ordinalAt(runes []rune, i int) bool {
	if i+2 > len(runes) {
		return false
	}
	suffix := strings.ToLower(string(runes[i : i+2]))
	switch suffix {
	case "st", "nd", "rd", "th":
	default:
		return false
	}
	if i+2 == len(runes) {
		return true
	}
	next := runes[i+2]
	return !isWordRune(next) || isUpper(next) || isDigit(next)
}

// fold lowercases a word and strips diacritics from Latin letters.
func fold(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		r = unicode.ToLower(r)
		if s, ok := ligatures[r]; ok {
			b.WriteString(s)
			continue
		}
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		b.WriteString(deburr(r))
	}
	return b.String()
}

// deburr maps a Latin letter with diacritics to its ASCII base letter. Runes
// whose canonical decomposition does not start with an ASCII letter are
// returned unchanged, so non-Latin scripts keep their marks.
func deburr(r rune) string {
	d := norm.NFD.String(string(r))
	base, _ := utf8.DecodeRuneInString(d)
	if base < utf8.RuneSelf && unicode.IsLetter(base) {
		return string(unicode.ToLower(base))
	}
	return string(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func isDigit(r rune) bool {
	return unicode.IsNumber(r)
}

// isUpper only counts letters that have a distinct lowercase form, so that
// lowercased output never contains a case boundary.
func isUpper(r rune) bool {
	return unicode.IsUpper(r) && unicode.ToLower(r) != r
}

func isLower(r rune) bool {
	return unicode.IsLower(r)
}

func lastNonMark(cur []rune) rune {
	for i := len(cur) - 1; i >= 0; i-- {
		if !unicode.IsMark(cur[i]) {
			return cur[i]
		}
	}
	return -1
}

func nextNonMark(runes []rune, i int) rune {
	for ; i < len(runes); i++ {
		if !unicode.IsMark(runes[i]) {
			return runes[i]
		}
	}
	return -1
}
