package moderation

import (
	_ "embed"
	"regexp"
	"strings"
)

//go:embed profanity.txt
var builtinLexicon string

var wordPattern = regexp.MustCompile(`[\p{L}\p{M}']+`)

type lexicon map[string]struct{}

func newLexicon(words ...[]string) lexicon {
	lex := lexicon{}
	for _, line := range strings.Split(builtinLexicon, "\n") {
		lex.add(line)
	}
	for _, list := range words {
		for _, w := range list {
			lex.add(w)
		}
	}
	return lex
}

func (l lexicon) add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || strings.HasPrefix(word, "#") {
		return
	}
	l[word] = struct{}{}
}

// contains reports whether any whole word of folded text is in the lexicon or
// in extra. Surrounding apostrophes are ignored so quoted words still match.
func (l lexicon) contains(folded string, extra map[string]struct{}) bool {
	for _, token := range wordPattern.FindAllString(folded, -1) {
		for _, candidate := range []string{token, strings.Trim(token, "'")} {
			if candidate == "" {
				continue
			}
			if _, ok := l[candidate]; ok {
				return true
			}
			if _, ok := extra[candidate]; ok {
				return true
			}
		}
	}
	return false
}
