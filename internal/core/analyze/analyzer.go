package analyze

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/markdave123-py/vectora/internal/models"
)

// Options toggles the optional analysis passes. Word/char counts and
// format are always computed.
type Options struct {
	DetectLanguage  bool
	ExtractEntities bool
	ExtractKeywords bool
	Summarize       bool
}

// AllOptions enables every pass.
func AllOptions() Options {
	return Options{DetectLanguage: true, ExtractEntities: true, ExtractKeywords: true, Summarize: true}
}

// Analyze derives document-level metadata from extracted text.
// sourceMetadata carries extractor-captured fields such as "title".
func Analyze(text, format string, sourceMetadata map[string]string, opts Options) models.DocumentMetadata {
	md := models.DocumentMetadata{
		WordCount: len(strings.Fields(text)),
		CharCount: len(text),
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}
	if sourceMetadata != nil {
		md.Title = sourceMetadata["title"]
		md.Author = sourceMetadata["author"]
	}

	if opts.DetectLanguage {
		md.Language = DetectLanguage(text)
	}
	if opts.ExtractEntities {
		md.Entities = ExtractEntities(text)
	}
	if opts.ExtractKeywords {
		md.Keywords = ExtractKeywords(text)
	}
	if opts.Summarize {
		md.Summary = Summarize(text)
	}
	return md
}

// stopwordSets drives the frequency heuristic: the language whose
// function words appear most often in the head of the text wins.
// Intentionally approximate; ties favor English.
var stopwordSets = []struct {
	lang  string
	words []string
}{
	{"en", []string{"the", "and", "is", "in", "to", "of", "that", "it", "with", "for"}},
	{"es", []string{"el", "la", "de", "que", "y", "en", "un", "es", "se", "no"}},
	{"fr", []string{"le", "la", "de", "et", "un", "est", "que", "pour", "dans", "ce"}},
	{"de", []string{"der", "die", "und", "das", "ist", "in", "den", "von", "zu", "mit"}},
}

// DetectLanguage scores space-delimited stopword matches over the first
// ~1000 characters and returns the best-scoring language code.
func DetectLanguage(text string) string {
	head := text
	if len(head) > 1000 {
		head = head[:1000]
	}
	tokens := strings.Fields(strings.ToLower(head))

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	best := "en"
	bestScore := -1
	for _, set := range stopwordSets {
		score := 0
		for _, w := range set.words {
			score += counts[w]
		}
		if score > bestScore {
			best = set.lang
			bestScore = score
		}
	}
	return best
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	urlRe   = regexp.MustCompile(`https?://[^\s<>"']+`)
	dateRe  = regexp.MustCompile(`\d{1,4}[-/]\d{1,2}[-/]\d{1,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)
	moneyRe = regexp.MustCompile(`[$€£]\s?\d+(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?\s?(?:USD|EUR|GBP|dollars?|euros?)`)
)

// entityPasses run independently; overlapping matches across passes are
// kept as-is, one EntityExtraction per match.
var entityPasses = []struct {
	typ        models.EntityType
	re         *regexp.Regexp
	confidence float64
}{
	{models.EntityEmail, emailRe, 0.9},
	{models.EntityURL, urlRe, 0.9},
	{models.EntityDate, dateRe, 0.8},
	{models.EntityMoney, moneyRe, 0.85},
}

// ExtractEntities runs each regex pass over the full text.
func ExtractEntities(text string) []models.EntityExtraction {
	var out []models.EntityExtraction
	for _, pass := range entityPasses {
		for _, loc := range pass.re.FindAllStringIndex(text, -1) {
			out = append(out, models.EntityExtraction{
				Type:       pass.typ,
				Value:      text[loc[0]:loc[1]],
				Confidence: pass.confidence,
				Positions:  []int{loc[0]},
			})
		}
	}
	return out
}

var keywordStopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "being": true,
	"below": true, "between": true, "could": true, "doing": true, "during": true,
	"further": true, "having": true, "other": true, "should": true, "their": true,
	"there": true, "these": true, "thing": true, "think": true, "those": true,
	"through": true, "under": true, "until": true, "where": true, "which": true,
	"while": true, "would": true,
}

var nonLetterRe = regexp.MustCompile(`[^a-z]+`)

// ExtractKeywords returns the 10 most frequent tokens longer than four
// characters after lowercasing, letter-stripping and stopword removal.
func ExtractKeywords(text string) []string {
	freq := make(map[string]int)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		token := nonLetterRe.ReplaceAllString(raw, "")
		if len(token) <= 4 || keywordStopwords[token] {
			continue
		}
		freq[token]++
	}

	type kv struct {
		word  string
		count int
	}
	ranked := make([]kv, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, kv{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	n := 10
	if len(ranked) < n {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, e := range ranked[:n] {
		out = append(out, e.word)
	}
	return out
}

var summarySplitRe = regexp.MustCompile(`[.!?]+\s+`)

// Summarize is extractive: the first three sentences longer than 20
// characters, joined, with a single trailing period.
func Summarize(text string) string {
	var picked []string
	prev := 0
	consume := func(raw string) {
		s := strings.TrimSpace(raw)
		if len(s) > 20 && len(picked) < 3 {
			picked = append(picked, strings.TrimRight(s, ".!?"))
		}
	}
	for _, b := range summarySplitRe.FindAllStringIndex(text, -1) {
		consume(text[prev:b[1]])
		prev = b[1]
		if len(picked) == 3 {
			break
		}
	}
	if len(picked) < 3 {
		consume(text[prev:])
	}
	if len(picked) == 0 {
		return ""
	}
	return strings.Join(picked, ". ") + "."
}
