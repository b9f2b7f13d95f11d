// Package tokenizer provides text tokenisation for the search engine.
// It splits on non-alphanumeric ASCII boundaries and lower-cases every
// token. Stop-words are kept in the raw token stream and are filtered only
// where term frequencies are counted.
package tokenizer

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "and": {},
	"a": {}, "an": {}, "of": {}, "in": {}, "to": {}, "for": {},
	"with": {}, "that": {}, "this": {}, "it": {}, "by": {}, "as": {},
	"from": {},
}

// Tokenize breaks text into maximal runs of ASCII letters and digits,
// lower-cased, in the order they appear. Every other byte is a delimiter.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/6)
	buf := make([]byte, 0, 16)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isAlnum(c) {
			buf = append(buf, toLower(c))
			continue
		}
		if len(buf) > 0 {
			tokens = append(tokens, string(buf))
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		tokens = append(tokens, string(buf))
	}
	return tokens
}

// IsStopWord reports whether token is excluded from term and document
// frequency counting.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// TermFrequencies counts every non stop-word token.
func TermFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		if IsStopWord(t) {
			continue
		}
		tf[t]++
	}
	return tf
}

// Acronym concatenates the first character of every token in text,
// stop-words included.
func Acronym(text string) string {
	tokens := Tokenize(text)
	acr := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		acr = append(acr, t[0])
	}
	return string(acr)
}

// ToLower lower-cases ASCII letters only, leaving every other byte intact.
func ToLower(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = toLower(b[j])
			}
			return string(b)
		}
	}
	return s
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
