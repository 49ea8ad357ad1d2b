package cron

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords are ignored when deriving a prefix from the first significant
// word of the message.
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields("hora de do da das dos lembrar tomar comprar fazer beber ir para as ao no na em um uma o a e") {
		stopwords[w] = true
	}
}

var wordSplitRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normalizeText lowercases, strips accents (NFD then drop combining marks)
// and collapses whitespace.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// keywordPrefixCandidates returns every 2-3 letter abbreviation whose
// keyword appears in message, in keywordAbbr's match order (duplicates
// collapsed).
func keywordPrefixCandidates(message string) []string {
	norm := normalizeText(message)
	if norm == "" {
		return nil
	}
	var candidates []string
	seen := map[string]bool{}
	for _, e := range keywordAbbr {
		if !strings.Contains(norm, normalizeText(e.Keyword)) {
			continue
		}
		abbr := e.Abbr
		if len(abbr) > 3 {
			abbr = abbr[:3]
		}
		abbr = strings.ToUpper(strings.TrimSpace(abbr))
		if abbr != "" && !seen[abbr] {
			seen[abbr] = true
			candidates = append(candidates, abbr)
		}
	}
	return candidates
}

// lettersFromWord derives a 2-3 letter abbreviation from word's own
// letters; a word with fewer than two letters uses its first two
// characters instead, padded with '0' when the word is a single character.
func lettersFromWord(word string) string {
	var letters []rune
	for _, c := range word {
		if unicode.IsLetter(c) && len(letters) < 3 {
			letters = append(letters, unicode.ToUpper(c))
		}
	}
	if len(letters) < 2 {
		runes := []rune(word)
		switch {
		case len(runes) >= 2:
			letters = []rune{unicode.ToUpper(runes[0]), unicode.ToUpper(runes[1])}
		case len(runes) == 1:
			letters = []rune{unicode.ToUpper(runes[0]), '0'}
		default:
			return ""
		}
	}
	if len(letters) > 3 {
		letters = letters[:3]
	}
	return string(letters)
}

// wordPrefixCandidates returns a letter-derived abbreviation for every
// significant word in message, in word order.
func wordPrefixCandidates(message string) []string {
	normed := normalizeText(message)
	if normed == "" {
		return nil
	}
	var candidates []string
	for _, w := range wordSplitRe.Split(normed, -1) {
		if len([]rune(w)) < 2 || stopwords[w] {
			continue
		}
		if abbr := lettersFromWord(w); abbr != "" {
			candidates = append(candidates, abbr)
		}
	}
	return candidates
}

// prefixFromMessage derives a 2-3 letter prefix for locale: try every
// keyword-list match in order, then every significant word's own letters,
// skipping any candidate that is a known-confusing token (state code,
// common acronym) in locale; the ultimate fallback is "LM".
func prefixFromMessage(message, locale string) string {
	for _, c := range keywordPrefixCandidates(message) {
		if !isConfusingID(c, locale) {
			return c
		}
	}
	for _, c := range wordPrefixCandidates(message) {
		if !isConfusingID(c, locale) {
			return c
		}
	}
	return "LM"
}

var nonAlphaRe = regexp.MustCompile(`[^A-Z]`)

// sanitizePrefix guarantees a 2-3 letter A-Z prefix.
func sanitizePrefix(prefix string) string {
	p := nonAlphaRe.ReplaceAllString(strings.ToUpper(prefix), "")
	if len(p) > 3 {
		p = p[:3]
	}
	if len(p) < 2 {
		if p == "" {
			return "LM"
		}
		return (p + "X")[:2]
	}
	return p
}

// generateFriendlyJobID produces a unique PREFIX+NN id (e.g. AG01, RM02).
// prefixOverride, when non-empty and not a known-confusing token in locale,
// is used instead of deriving the prefix from message; otherwise the
// prefix is derived per prefixFromMessage.
func generateFriendlyJobID(message string, existingIDs []string, prefixOverride string, locale string) string {
	var prefix string
	if prefixOverride != "" {
		if candidate := sanitizePrefix(prefixOverride); candidate != "" && !isConfusingID(candidate, locale) {
			prefix = candidate
		}
	}
	if prefix == "" {
		prefix = prefixFromMessage(message, locale)
	}
	return nextAvailableID(prefix, existingIDs)
}

// nextAvailableID returns prefix + the smallest unused 2-digit suffix
// (overflowing to 3 digits past 99).
func nextAvailableID(prefix string, existingIDs []string) string {
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}
	for n := 1; n < 1000; n++ {
		var suffix string
		if n < 100 {
			suffix = fmt.Sprintf("%02d", n)
		} else {
			suffix = fmt.Sprintf("%03d", n)
		}
		candidate := prefix + suffix
		if !existing[candidate] {
			return candidate
		}
	}
	return prefix + "99"
}
