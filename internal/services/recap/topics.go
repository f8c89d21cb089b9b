package recap

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// marketTokens are matched as whole words in upper-cased titles
var marketTokens = []string{"IHSG", "LQ45", "IDX30", "BI", "OJK", "RUPIAH"}

// tokenDisplay overrides the upper-case form of a token in the narrative
var tokenDisplay = map[string]string{
	"RUPIAH": "Rupiah",
}

// stopwords are ignored by the word-frequency fallback
var stopwords = map[string]bool{
	"di": true, "ke": true, "dan": true, "yang": true, "ini": true, "itu": true,
	"saham": true, "untuk": true, "pt": true, "tbk": true, "indonesia": true,
	"dengan": true, "akan": true, "pada": true, "market": true, "bursa": true,
	"news": true, "hari": true, "juta": true, "miliar": true, "triliun": true, "rp": true,
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

type count struct {
	key string
	n   int
}

// topN orders counts by frequency, ties broken by key, and keeps n
func topN(counts map[string]int, n int) []count {
	ranked := make([]count, 0, len(counts))
	for k, v := range counts {
		ranked = append(ranked, count{key: k, n: v})
	}
	slices.SortFunc(ranked, func(a, b count) int {
		return cmp.Or(cmp.Compare(b.n, a.n), cmp.Compare(a.key, b.key))
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// knownTopics counts whole-word occurrences of tokens across titles
func knownTopics(titles []string, tokens map[string]bool) map[string]int {
	counts := make(map[string]int)
	for _, title := range titles {
		words := strings.FieldsFunc(strings.ToUpper(title), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if tokens[w] {
				counts[w]++
			}
		}
	}
	return counts
}

// frequentWords counts lower-cased words longer than three runes that are not stopwords
func frequentWords(titles []string) map[string]int {
	counts := make(map[string]int)
	for _, title := range titles {
		for _, w := range wordPattern.FindAllString(strings.ToLower(title), -1) {
			if stopwords[w] || len([]rune(w)) <= 3 {
				continue
			}
			counts[w]++
		}
	}
	return counts
}

// topTopics returns up to three display-formatted topics. Known market tokens
// win; the word-frequency fallback only runs when none appear.
func topTopics(titles []string, tokens map[string]bool) []string {
	if ranked := topN(knownTopics(titles, tokens), 3); len(ranked) > 0 {
		topics := make([]string, len(ranked))
		for i, c := range ranked {
			topics[i] = c.key
			if display, ok := tokenDisplay[c.key]; ok {
				topics[i] = display
			}
		}
		return topics
	}

	caser := cases.Title(language.Indonesian)
	ranked := topN(frequentWords(titles), 3)
	topics := make([]string, len(ranked))
	for i, c := range ranked {
		if c.key == "ihsg" {
			topics[i] = "IHSG"
			continue
		}
		topics[i] = caser.String(c.key)
	}
	return topics
}
