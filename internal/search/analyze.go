package search

import (
	"strings"
	"unicode"

	"github.com/warrendb/warrendb/internal/catalog"
)

// Tokenize splits text into tokens per tok, then Filter runs each
// filter over the token stream in order. Analyze composes both the
// way a catalog.Analyzer's Tokenizers/Filters chain names them (spec
// §3 "Indexes" / internal/catalog.Analyzer doc comment).
func Analyze(a catalog.Analyzer, text string) []string {
	toks := []string{text}
	if len(a.Tokenizers) == 0 {
		toks = Tokenize("blank", text)
	} else {
		for _, name := range a.Tokenizers {
			var next []string
			for _, t := range toks {
				next = append(next, Tokenize(name, t)...)
			}
			toks = next
		}
	}
	for _, name := range a.Filters {
		toks = Filter(name, toks)
	}
	return toks
}

// Tokenize runs one named tokenizer over s. Unknown names fall back to
// "blank" rather than erroring, since a bad analyzer name is caught at
// DEFINE ANALYZER time (out of scope here), not at index-write time.
func Tokenize(name, s string) []string {
	switch name {
	case "blank":
		return strings.FieldsFunc(s, unicode.IsSpace)
	case "class":
		return tokenizeByClass(s)
	case "camel":
		return tokenizeCamel(s)
	case "punct":
		return strings.FieldsFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || unicode.IsPunct(r)
		})
	default:
		return strings.FieldsFunc(s, unicode.IsSpace)
	}
}

// tokenizeByClass splits on transitions between unicode character
// classes (letter/digit/other), so "warren3db" -> ["warren", "3", "db"].
func tokenizeByClass(s string) []string {
	var out []string
	var cur strings.Builder
	var curClass rune
	classOf := func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return 'L'
		case unicode.IsDigit(r):
			return 'N'
		default:
			return 'O'
		}
	}
	flush := func() {
		if cur.Len() > 0 {
			if curClass != 'O' {
				out = append(out, cur.String())
			}
			cur.Reset()
		}
	}
	for _, r := range s {
		c := classOf(r)
		if cur.Len() > 0 && c != curClass {
			flush()
		}
		curClass = c
		cur.WriteRune(r)
	}
	flush()
	return out
}

// tokenizeCamel splits camelCase/PascalCase identifiers on case
// transitions, e.g. "liveQuery" -> ["live", "Query"].
func tokenizeCamel(s string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// Filter runs one named filter over a token stream. ngram/edgengram
// names carry their parameters inline ("ngram:3:3", "edgengram:2:10")
// the way catalog.Analyzer's doc comment specifies.
func Filter(name string, toks []string) []string {
	switch {
	case name == "lowercase":
		out := make([]string, len(toks))
		for i, t := range toks {
			out[i] = strings.ToLower(t)
		}
		return out
	case name == "ascii":
		out := make([]string, 0, len(toks))
		for _, t := range toks {
			if a := toASCII(t); a != "" {
				out = append(out, a)
			}
		}
		return out
	case name == "snowball:en":
		out := make([]string, len(toks))
		for i, t := range toks {
			out[i] = stemEnglish(t)
		}
		return out
	case strings.HasPrefix(name, "edgengram:"):
		lo, hi := ngramBounds(name)
		var out []string
		for _, t := range toks {
			out = append(out, edgeNgrams(t, lo, hi)...)
		}
		return out
	case strings.HasPrefix(name, "ngram:"):
		lo, hi := ngramBounds(name)
		var out []string
		for _, t := range toks {
			out = append(out, ngrams(t, lo, hi)...)
		}
		return out
	default:
		return toks
	}
}

func toASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stemEnglish is a deliberately small Porter-style suffix stripper,
// not a full snowball stemmer: it folds the common English
// inflectional suffixes a BM25 index benefits most from collapsing
// ("indexes"/"indexing"/"indexed" -> "index").
func stemEnglish(s string) string {
	for _, suf := range []string{"ing", "edly", "ed", "ies", "es", "s"} {
		if strings.HasSuffix(s, suf) && len(s) > len(suf)+2 {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

func ngramBounds(name string) (lo, hi int) {
	parts := strings.Split(name, ":")
	lo, hi = 2, 2
	if len(parts) >= 2 {
		lo = atoiOr(parts[1], 2)
	}
	if len(parts) >= 3 {
		hi = atoiOr(parts[2], lo)
	} else {
		hi = lo
	}
	return lo, hi
}

func atoiOr(s string, def int) int {
	n := 0
	if s == "" {
		return def
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func ngrams(s string, lo, hi int) []string {
	r := []rune(s)
	var out []string
	for n := lo; n <= hi; n++ {
		if n > len(r) {
			continue
		}
		for i := 0; i+n <= len(r); i++ {
			out = append(out, string(r[i:i+n]))
		}
	}
	return out
}

func edgeNgrams(s string, lo, hi int) []string {
	r := []rune(s)
	var out []string
	for n := lo; n <= hi && n <= len(r); n++ {
		out = append(out, string(r[:n]))
	}
	return out
}
