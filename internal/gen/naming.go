package gen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reservedWords are identifiers a generated function or parameter may not
// take: JavaScript/TypeScript reserved words plus the transport binding.
var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		break case catch class const continue debugger default delete do else
		enum export extends false finally for function if import in instanceof
		new null return super switch this throw true try typeof var void while
		with as implements interface let package private protected public static
		yield any boolean number string symbol type await async of arguments eval
		undefined request`) {
		reservedWords[w] = struct{}{}
	}
}

// IsReserved reports whether s may not be used as a generated identifier.
func IsReserved(s string) bool {
	_, ok := reservedWords[s]
	return ok
}

// EscapeReserved prefixes reserved identifiers with an underscore.
func EscapeReserved(s string) string {
	if IsReserved(s) {
		return "_" + s
	}
	return s
}

// IsIdentifier reports whether s is a valid TypeScript identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !identRune(r, i == 0) {
			return false
		}
	}
	return true
}

func identRune(r rune, first bool) bool {
	switch {
	case r == '_' || r == '$' || unicode.IsLetter(r):
		return true
	case unicode.IsDigit(r):
		return !first
	}
	return false
}

// namer owns the casers used while naming things in one run. Casers keep
// state between calls and must not be shared across goroutines.
type namer struct {
	lower cases.Caser
	title cases.Caser
}

func newNamer() *namer {
	return &namer{
		lower: cases.Lower(language.Und),
		title: cases.Title(language.Und),
	}
}

// camel converts s to camelCase: "CreatePetRequest" -> "createPetRequest",
// "X-Request-ID" -> "xRequestId". The result may still start with a digit.
func (n *namer) camel(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(n.lower.String(w))
			continue
		}
		b.WriteString(n.title.String(w))
	}
	return b.String()
}

// kebab lower-cases s and joins its words with hyphens: "Pet Store" -> "pet-store".
func (n *namer) kebab(s string) string {
	return strings.Join(splitWords(n.lower.String(s)), "-")
}

// identifier turns s into a usable, non-reserved identifier. It returns ""
// when s holds no letters or digits.
func (n *namer) identifier(s string) string {
	if IsIdentifier(s) {
		return EscapeReserved(s)
	}
	id := n.camel(s)
	if id == "" {
		return ""
	}
	if r := []rune(id)[0]; unicode.IsDigit(r) {
		id = "_" + id
	}
	return EscapeReserved(id)
}

// splitWords breaks s on separators and case boundaries: "HTTPServerError"
// -> [HTTP Server Error], "pet_store.v2" -> [pet store v2].
func splitWords(s string) []string {
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
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
