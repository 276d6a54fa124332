// Package search answers exact, prefix and fuzzy headword queries against
// the current dictionary indexes.
package search

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gcbaptista/go-lexicon/index"
	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/folding"
	"github.com/gcbaptista/go-lexicon/internal/typoutil"
	"github.com/gcbaptista/go-lexicon/model"
)

// Result bounds.
const (
	PrefixLimit     = 10
	FuzzyLimit      = 10
	RelatedLimit    = 15
	SuggestionLimit = 5

	shortDefinitionRunes = 40
)

// IndexSource yields the indexes currently being served. It returns nil
// while nothing is loaded.
type IndexSource interface {
	Indexes() *index.Indexes
}

// Service implements the query engine. Each call reads one indexes
// snapshot from its source, so a concurrent reload never mixes two builds
// within one answer.
type Service struct {
	source    IndexSource
	collators sync.Pool
	intn      func(n int) int
	now       func() time.Time
}

// NewService creates a search Service that sorts headwords with the
// collation rules of lang.
func NewService(source IndexSource, lang language.Tag) *Service {
	s := &Service{
		source: source,
		intn:   rand.IntN,
		now:    time.Now,
	}
	// collate.Collator keeps scratch buffers and is not safe for concurrent use.
	s.collators.New = func() any {
		return collate.New(lang, collate.IgnoreCase)
	}
	return s
}

func (s *Service) snapshot() *index.Indexes {
	if s.source == nil {
		return nil
	}
	return s.source.Indexes()
}

// ExactMatch looks the case-folded query up in the exact index.
func (s *Service) ExactMatch(query string) (model.WordEntry, bool) {
	return s.snapshot().Lookup(folding.Key(query))
}

// PrefixMatches returns the first PrefixLimit members of the query's prefix
// bucket, sorted by headword. Buckets only exist for prefixes of up to
// index.PrefixMaxLen runes, so longer queries match nothing here.
func (s *Service) PrefixMatches(query string) []model.WordEntry {
	return s.prefixMatches(s.snapshot(), folding.Key(query))
}

func (s *Service) prefixMatches(ix *index.Indexes, key string) []model.WordEntry {
	if ix == nil || key == "" {
		return nil
	}
	positions := ix.Prefix[key]
	if len(positions) > PrefixLimit {
		positions = positions[:PrefixLimit]
	}

	type candidate struct {
		entry model.WordEntry
		key   string
	}
	candidates := make([]candidate, len(positions))
	for i, p := range positions {
		candidates[i] = candidate{entry: ix.Entries[p], key: ix.Keys[p]}
	}

	c := s.collators.Get().(*collate.Collator)
	defer s.collators.Put(c)
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if r := c.CompareString(a.entry.Word, b.entry.Word); r != 0 {
			return r
		}
		return strings.Compare(a.key, b.key)
	})

	entries := make([]model.WordEntry, len(candidates))
	for i, cand := range candidates {
		entries[i] = cand.entry
	}
	return entries
}

// FuzzyMatches returns up to FuzzyLimit headwords related to the query but
// not equal to it. Members of the query's own prefix bucket come first;
// if they are too few, headwords containing the query are added in corpus
// order, stopping as soon as the limit is reached. The scan is best effort:
// a bucket capped at index.PrefixBucketCap may hide longer family members.
func (s *Service) FuzzyMatches(query string) []model.WordEntry {
	return fuzzyMatches(s.snapshot(), folding.Key(query))
}

func fuzzyMatches(ix *index.Indexes, key string) []model.WordEntry {
	if ix == nil || key == "" {
		return nil
	}

	results := make([]model.WordEntry, 0, FuzzyLimit)
	seen := make(map[int]struct{}, FuzzyLimit)

	for _, p := range ix.Prefix[key] {
		if len(results) >= FuzzyLimit {
			break
		}
		if ix.Keys[p] == key {
			continue
		}
		seen[p] = struct{}{}
		results = append(results, ix.Entries[p])
	}

	if len(results) < FuzzyLimit {
		for p, k := range ix.Keys {
			if k == key || !strings.Contains(k, key) {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			results = append(results, ix.Entries[p])
			if len(results) >= FuzzyLimit {
				break
			}
		}
	}

	return results
}

// Suggest returns the related entries for a query: the sorted prefix
// matches, topped up with fuzzy matches when there are fewer than
// PrefixLimit of them, at most RelatedLimit in total.
func (s *Service) Suggest(query string) []model.WordEntry {
	return s.related(s.snapshot(), folding.Key(query))
}

func (s *Service) related(ix *index.Indexes, key string) []model.WordEntry {
	related := s.prefixMatches(ix, key)
	if len(related) >= PrefixLimit {
		return capEntries(related, RelatedLimit)
	}

	seen := make(map[string]struct{}, len(related))
	for _, e := range related {
		seen[folding.Key(e.Word)] = struct{}{}
	}
	for _, e := range fuzzyMatches(ix, key) {
		k := folding.Key(e.Word)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		related = append(related, e)
	}
	return capEntries(related, RelatedLimit)
}

func capEntries(entries []model.WordEntry, n int) []model.WordEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Search combines the exact match with related entries.
//
// Errors distinguish the three negative outcomes: the query is blank
// (ErrInvalidQuery), nothing is loaded (ErrUnavailable), or nothing matched
// (ErrNotFound). In the last case the returned result still carries the
// query and any spelling suggestions.
func (s *Service) Search(query string) (model.SearchResult, error) {
	start := s.now()
	key := folding.Key(query)
	if key == "" {
		return model.SearchResult{}, fmt.Errorf("%w: query is empty", internalErrors.ErrInvalidQuery)
	}

	ix := s.snapshot()
	if ix.Empty() {
		return model.SearchResult{}, internalErrors.NewUnavailableError(nil)
	}

	result := model.SearchResult{
		Query:   folding.Whitespace(query),
		QueryID: uuid.NewString(),
		Related: s.related(ix, key),
	}
	if exact, ok := ix.Lookup(key); ok {
		result.Exact = &exact
	}
	if result.Related == nil {
		result.Related = []model.WordEntry{}
	}
	result.Took = s.now().Sub(start).Microseconds()

	if result.Exact == nil && len(result.Related) == 0 {
		result.Suggestions = didYouMean(ix, key)
		return result, internalErrors.NewWordNotFoundError(result.Query)
	}
	return result, nil
}

// didYouMean offers headwords within a small edit distance of key, drawn
// from the bucket of its first rune.
func didYouMean(ix *index.Indexes, key string) []string {
	maxDistance := typoutil.MaxDistanceFor(key)
	if maxDistance == 0 {
		return nil
	}
	first, size := utf8.DecodeRuneInString(key)
	if first == utf8.RuneError && size <= 1 {
		return nil
	}

	positions := ix.Prefix[key[:size]]
	candidates := make([]string, len(positions))
	for i, p := range positions {
		candidates[i] = ix.Keys[p]
	}

	keys := typoutil.Closest(key, candidates, maxDistance, SuggestionLimit)
	words := make([]string, len(keys))
	for i, k := range keys {
		entry, _ := ix.Lookup(k)
		words[i] = entry.Word
	}
	return words
}

// ByPartOfSpeech lists entries carrying a part-of-speech key in corpus
// order. A non-positive limit returns them all.
func (s *Service) ByPartOfSpeech(tag string, limit int) ([]model.WordEntry, error) {
	ix := s.snapshot()
	if ix.Empty() {
		return nil, internalErrors.NewUnavailableError(nil)
	}
	entries := ix.PosBucket(strings.TrimSpace(tag))
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// PartsOfSpeech returns every part-of-speech key with its entry count.
func (s *Service) PartsOfSpeech() map[string]int {
	return s.snapshot().PosTags()
}

// Random returns a uniformly chosen entry.
func (s *Service) Random() (model.WordEntry, error) {
	ix := s.snapshot()
	if ix.Empty() {
		return model.WordEntry{}, internalErrors.NewUnavailableError(nil)
	}
	return ix.Entries[s.intn(ix.Len())], nil
}

// Entries returns the entries of the current snapshot in corpus order. The
// slice is shared and must not be modified.
func (s *Service) Entries() []model.WordEntry {
	ix := s.snapshot()
	if ix == nil {
		return nil
	}
	return ix.Entries
}

var (
	leadingNumber = regexp.MustCompile(`^\d+\s*`)
	leadingHeader = regexp.MustCompile(`^[a-zA-Z]+\s*\([^)]*\)\s*`)
)

// ShortDefinition returns a one-line preview of the first definition:
// leading sense numbering and a leading "word (...)" header are removed and
// the text is cut to 40 runes followed by "...".
func ShortDefinition(entry model.WordEntry) string {
	if len(entry.Definitions) == 0 {
		return ""
	}
	text := entry.Definitions[0].Text
	text = leadingNumber.ReplaceAllString(text, "")
	text = leadingHeader.ReplaceAllString(text, "")

	if utf8.RuneCountInString(text) > shortDefinitionRunes {
		runes := []rune(text)
		text = string(runes[:shortDefinitionRunes]) + "..."
	}
	return text
}
