package gen

import (
	"strings"
	"unicode"
)

// RefSegments splits a local reference such as "#/components/schemas/Pet"
// into its path segments [components schemas Pet]. References without a
// leading '#' or without content yield nil.
func RefSegments(ref string) []string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "#")
	if !ok {
		return nil
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	segs := strings.Split(rest, "/")
	for i, s := range segs {
		// JSON Pointer escapes.
		s = strings.ReplaceAll(s, "~1", "/")
		segs[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return segs
}

// RefName returns the normalized type name a reference points at: the last
// segment passed through NormalizeName. It returns "" when the reference
// cannot be resolved to a name.
func RefName(ref string) string {
	segs := RefSegments(ref)
	if len(segs) == 0 {
		return ""
	}
	return NormalizeName(segs[len(segs)-1])
}

// NormalizeName derives an interface name from a schema name by dropping
// '.' and '_' ("Pet.Detail" -> "PetDetail") along with any other character
// that cannot appear in an identifier. Distinct schema names may normalize
// to the same interface name.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '.' || r == '_':
		case r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "T" + out
	}
	return out
}
