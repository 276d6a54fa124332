package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gcbaptista/go-lexicon/index"
	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/indexing"
	"github.com/gcbaptista/go-lexicon/model"
)

type staticSource struct {
	ix *index.Indexes
}

func (s staticSource) Indexes() *index.Indexes { return s.ix }

func newTestService(words ...string) *Service {
	entries := make([]model.WordEntry, len(words))
	for i, w := range words {
		entries[i] = model.WordEntry{Word: w, Definitions: []model.Definition{{Text: "def " + w}}}
	}
	return NewService(staticSource{ix: indexing.BuildEntries(entries)}, language.French)
}

func headwords(entries []model.WordEntry) []string {
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	return words
}

func TestService_PrefixMatchesSortedAlphabetically(t *testing.T) {
	s := newTestService("bonjour", "bonsoir", "bonbon")

	assert.Equal(t, []string{"bonbon", "bonjour", "bonsoir"}, headwords(s.PrefixMatches("bon")))
	assert.Equal(t, []string{"bonbon", "bonjour", "bonsoir"}, headwords(s.PrefixMatches("BON")))
	assert.Empty(t, s.PrefixMatches("xyz"))
	assert.Empty(t, s.PrefixMatches("  "))
}

func TestService_PrefixMatchesCollation(t *testing.T) {
	s := newTestService("cz", "cé", "Cb", "ca")

	// Accented letters sort next to their base letter, not after "z", and
	// case is ignored.
	assert.Equal(t, []string{"ca", "Cb", "cé", "cz"}, headwords(s.PrefixMatches("c")))
}

func TestService_PrefixMatchesTakesFirstTenThenSorts(t *testing.T) {
	// Encounter order: z-words first, so the first ten bucket members are
	// all "az..." words even though "aa..." words sort earlier.
	var words []string
	for i := 0; i < 10; i++ {
		words = append(words, fmt.Sprintf("az%02d", i))
	}
	for i := 0; i < 5; i++ {
		words = append(words, fmt.Sprintf("aa%02d", i))
	}
	s := newTestService(words...)

	got := headwords(s.PrefixMatches("a"))
	require.Len(t, got, PrefixLimit)
	assert.Equal(t, "az00", got[0])
	assert.Equal(t, "az09", got[9])
}

func TestService_ExactMatch(t *testing.T) {
	s := newTestService("Chat", "chien")

	entry, ok := s.ExactMatch("  CHAT ")
	require.True(t, ok)
	assert.Equal(t, "Chat", entry.Word)

	_, ok = s.ExactMatch("cha")
	assert.False(t, ok)
}

func TestService_ExactAndPrefixConsistency(t *testing.T) {
	words := []string{"a", "au", "aujourd'hui", "Été", "bonjour", "bonsoir", "bonbon", "pomme de terre"}
	s := newTestService(words...)

	for _, w := range words {
		_, ok := s.ExactMatch(w)
		require.True(t, ok, w)

		runes := []rune(strings.ToLower(w))
		if len(runes) > index.PrefixMaxLen {
			runes = runes[:index.PrefixMaxLen]
		}
		assert.Contains(t, headwords(s.PrefixMatches(string(runes))), w)
	}
}

func TestService_FuzzyMatches(t *testing.T) {
	s := newTestService("chat", "chaton", "château", "achat", "rachat", "chien")

	got := headwords(s.FuzzyMatches("chat"))
	// Prefix family first, then substring hits in corpus order.
	assert.Equal(t, []string{"chaton", "achat", "rachat"}, got)
	assert.NotContains(t, got, "chat")
}

func TestService_FuzzyMatchesIsBounded(t *testing.T) {
	var words []string
	for i := 0; i < 40; i++ {
		words = append(words, fmt.Sprintf("mot%02d", i), fmt.Sprintf("x%02dmot", i))
	}
	s := newTestService(words...)

	for _, q := range []string{"m", "mo", "mot", "mot0", "x", "0", "t", "zzz", "mot39"} {
		assert.LessOrEqual(t, len(s.FuzzyMatches(q)), FuzzyLimit, q)
	}
	assert.Len(t, s.FuzzyMatches("mot"), FuzzyLimit)
}

func TestService_SearchUnavailableBeforeLoad(t *testing.T) {
	s := NewService(staticSource{}, language.French)

	_, err := s.Search("chat")
	assert.ErrorIs(t, err, internalErrors.ErrUnavailable)
	assert.NotErrorIs(t, err, internalErrors.ErrNotFound)

	_, err = NewService(staticSource{ix: index.New()}, language.French).Search("chat")
	assert.ErrorIs(t, err, internalErrors.ErrUnavailable)
}

func TestService_SearchInvalidQuery(t *testing.T) {
	s := newTestService("chat")

	_, err := s.Search(" \t ")
	assert.ErrorIs(t, err, internalErrors.ErrInvalidQuery)
}

func TestService_Search(t *testing.T) {
	s := newTestService("chat", "chaton", "achat", "chien")

	result, err := s.Search("Chat")
	require.NoError(t, err)

	require.NotNil(t, result.Exact)
	assert.Equal(t, "chat", result.Exact.Word)
	assert.Equal(t, "Chat", result.Query)
	assert.NotEmpty(t, result.QueryID)
	// Prefix matches (including the word itself) then fuzzy extras.
	assert.Equal(t, []string{"chat", "chaton", "achat"}, headwords(result.Related))
}

func TestService_SearchRelatedCap(t *testing.T) {
	var words []string
	for i := 0; i < 5; i++ {
		words = append(words, fmt.Sprintf("ab%d", i))
	}
	for i := 0; i < 20; i++ {
		words = append(words, fmt.Sprintf("x%02dab", i))
	}
	s := newTestService(words...)

	result, err := s.Search("ab")
	require.NoError(t, err)
	assert.Nil(t, result.Exact)
	// Five prefix matches, topped up by fuzzy matches until the fuzzy side
	// has collected its ten.
	assert.Equal(t, []string{"ab0", "ab1", "ab2", "ab3", "ab4", "x00ab", "x01ab", "x02ab", "x03ab", "x04ab"},
		headwords(result.Related))
	assert.LessOrEqual(t, len(result.Related), RelatedLimit)
}

func TestService_SearchNotFound(t *testing.T) {
	s := newTestService("bonjour", "bonsoir")

	result, err := s.Search("bonjuor")
	require.Error(t, err)
	assert.ErrorIs(t, err, internalErrors.ErrNotFound)
	assert.NotErrorIs(t, err, internalErrors.ErrUnavailable)
	assert.Empty(t, result.Related)
	assert.Equal(t, []string{"bonjour"}, result.Suggestions)
}

func TestService_Suggest(t *testing.T) {
	s := newTestService("bonjour", "bonsoir", "bonbon", "rebond")

	assert.Equal(t, []string{"bonbon", "bonjour", "bonsoir", "rebond"}, headwords(s.Suggest("bon")))
}

func TestService_ByPartOfSpeech(t *testing.T) {
	verb := model.PartOfSpeech{Abbr: "v."}
	noun := model.PartOfSpeech{Abbr: "n."}
	ix := indexing.BuildEntries([]model.WordEntry{
		{Word: "manger", PartsOfSpeech: []model.PartOfSpeech{verb}},
		{Word: "chat", PartsOfSpeech: []model.PartOfSpeech{noun}},
		{Word: "boire", PartsOfSpeech: []model.PartOfSpeech{verb}},
	})
	s := NewService(staticSource{ix: ix}, language.French)

	verbs, err := s.ByPartOfSpeech("v.", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"manger", "boire"}, headwords(verbs))

	limited, err := s.ByPartOfSpeech("v.", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.ByPartOfSpeech("adj.", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Equal(t, map[string]int{"v.": 2, "n.": 1}, s.PartsOfSpeech())
}

func TestService_Random(t *testing.T) {
	s := newTestService("un", "deux", "trois")
	s.intn = func(n int) int { return n - 1 }

	entry, err := s.Random()
	require.NoError(t, err)
	assert.Equal(t, "trois", entry.Word)

	_, err = NewService(staticSource{}, language.French).Random()
	assert.ErrorIs(t, err, internalErrors.ErrUnavailable)
}

func TestShortDefinition(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain", text: "cat", want: "cat"},
		{name: "numbering", text: "1 cat", want: "cat"},
		{name: "header", text: "chat (n.m.) cat", want: "cat"},
		{name: "numbering and header", text: "2 chat (n.m.)  small cat", want: "small cat"},
		{name: "long", text: strings.Repeat("é", 45), want: strings.Repeat("é", 40) + "..."},
		{name: "exactly forty", text: strings.Repeat("a", 40), want: strings.Repeat("a", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := model.WordEntry{Word: "chat", Definitions: []model.Definition{{Text: tt.text}}}
			assert.Equal(t, tt.want, ShortDefinition(entry))
		})
	}

	assert.Equal(t, "", ShortDefinition(model.WordEntry{Word: "vide"}))
}
