package indexing

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-lexicon/index"
	"github.com/gcbaptista/go-lexicon/model"
)

var (
	nounTag = model.PartOfSpeech{Abbr: "n.", Full: "noun"}
	verbTag = model.PartOfSpeech{Abbr: "v.", Full: "verb"}
)

func TestBuildEntries_MergesPartitionsForSameHeadword(t *testing.T) {
	// noun.json and verb.json both define "chat".
	entries := []model.WordEntry{
		{Word: "chat", PartsOfSpeech: []model.PartOfSpeech{nounTag}, Gender: model.GenderMasculine,
			Definitions: []model.Definition{{Text: "cat"}}},
		{Word: "Chat", PartsOfSpeech: []model.PartOfSpeech{verbTag},
			Definitions: []model.Definition{{Text: "to chat"}}, Conjugation: "1er groupe"},
	}

	ix := BuildEntries(entries)

	require.Equal(t, 1, ix.Len())
	got, ok := ix.Lookup("chat")
	require.True(t, ok)

	want := model.WordEntry{
		Word:          "chat",
		PartsOfSpeech: []model.PartOfSpeech{nounTag, verbTag},
		Definitions:   []model.Definition{{Text: "cat"}, {Text: "to chat"}},
		Gender:        model.GenderMasculine,
		Conjugation:   "1er groupe",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged entry mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []int{0}, ix.Pos["n."])
	assert.Equal(t, []int{0}, ix.Pos["v."])
	assert.Equal(t, 1, ix.Metadata.TotalCount)
}

func TestBuildEntries_MergeIsIdempotent(t *testing.T) {
	partition := []model.WordEntry{
		{Word: "aller", PartsOfSpeech: []model.PartOfSpeech{verbTag}, Definitions: []model.Definition{{Text: "to go"}}},
		{Word: "maison", PartsOfSpeech: []model.PartOfSpeech{nounTag}, Gender: model.GenderFeminine,
			Definitions: []model.Definition{{Text: "house"}, {Text: "home"}}},
	}

	once := BuildEntries(partition)
	twice := BuildEntries(append(append([]model.WordEntry(nil), partition...), partition...))

	if diff := cmp.Diff(once.Entries, twice.Entries); diff != "" {
		t.Errorf("entries differ after loading the partition twice (-once +twice):\n%s", diff)
	}
	assert.Equal(t, once.Pos, twice.Pos)
	assert.Equal(t, once.Prefix, twice.Prefix)
}

func TestBuildEntries_DedupesWithinSingleEntry(t *testing.T) {
	ix := BuildEntries([]model.WordEntry{{
		Word:          "bon",
		PartsOfSpeech: []model.PartOfSpeech{{Abbr: "adj."}, {Abbr: "adj.", Full: "adjective"}, {}},
		Definitions:   []model.Definition{{Text: "good"}, {Text: "good"}},
	}})

	got, ok := ix.Lookup("bon")
	require.True(t, ok)
	assert.Equal(t, []model.PartOfSpeech{{Abbr: "adj."}}, got.PartsOfSpeech)
	assert.Equal(t, []model.Definition{{Text: "good"}}, got.Definitions)
	assert.Equal(t, []int{0}, ix.Pos["adj."])
}

func TestBuildEntries_PrefixBucketCap(t *testing.T) {
	entries := make([]model.WordEntry, 0, 150)
	for i := 0; i < 150; i++ {
		entries = append(entries, model.WordEntry{Word: fmt.Sprintf("ab%03d", i)})
	}

	ix := BuildEntries(entries)

	assert.Len(t, ix.Prefix["a"], index.PrefixBucketCap)
	assert.Len(t, ix.Prefix["ab"], index.PrefixBucketCap)
	assert.Len(t, ix.Prefix["ab0"], index.PrefixBucketCap)
	assert.Len(t, ix.Prefix["ab1"], 50)
	assert.Len(t, ix.Prefix["ab14"], 10)

	// No eviction: the first hundred words in encounter order stay.
	keys := ix.PrefixKeys("a")
	assert.Equal(t, "ab000", keys[0])
	assert.Equal(t, "ab099", keys[99])
	require.NoError(t, ix.Check())
}

func TestBuildEntries_ExactAndPrefixConsistency(t *testing.T) {
	words := []string{"a", "Été", "bonjour", "bonsoir", "bonbon", "pomme de terre", "œuvre", "Chat"}
	entries := make([]model.WordEntry, len(words))
	for i, w := range words {
		entries[i] = model.WordEntry{Word: w}
	}

	ix := BuildEntries(entries)

	for i, key := range ix.Keys {
		_, ok := ix.Lookup(key)
		require.True(t, ok, "exact lookup for %q", key)

		runes := []rune(key)
		n := len(runes)
		if n > index.PrefixMaxLen {
			n = index.PrefixMaxLen
		}
		assert.Contains(t, ix.Prefix[string(runes[:n])], i, "prefix bucket of %q", key)
	}
}

func TestBuildEntries_PrefixesUseRunes(t *testing.T) {
	ix := BuildEntries([]model.WordEntry{{Word: "Été"}})

	assert.Contains(t, ix.Prefix, "é")
	assert.Contains(t, ix.Prefix, "ét")
	assert.Contains(t, ix.Prefix, "été")
	assert.Len(t, ix.Prefix, 3)
}

func TestBuildEntries_SkipsEmptyHeadwords(t *testing.T) {
	ix := BuildEntries([]model.WordEntry{{Word: "  "}, {Word: ""}, {Word: "oui"}})

	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{"oui"}, ix.Keys)
}

func TestBuildEntries_InputOrderChangesOnlyBucketOrder(t *testing.T) {
	forward := []model.WordEntry{{Word: "bonbon"}, {Word: "bonjour"}, {Word: "bonsoir"}}
	backward := []model.WordEntry{{Word: "bonsoir"}, {Word: "bonjour"}, {Word: "bonbon"}}

	a := BuildEntries(forward)
	b := BuildEntries(backward)

	assert.ElementsMatch(t, a.PrefixKeys("bon"), b.PrefixKeys("bon"))
	assert.NotEqual(t, a.PrefixKeys("bon"), b.PrefixKeys("bon"))
	assert.Len(t, b.Prefix, len(a.Prefix))
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	existing := model.WordEntry{Word: "chat", PartsOfSpeech: make([]model.PartOfSpeech, 1, 4),
		Definitions: []model.Definition{{Text: "cat"}}}
	existing.PartsOfSpeech[0] = nounTag
	incoming := model.WordEntry{Word: "chat", PartsOfSpeech: []model.PartOfSpeech{verbTag},
		Gender: model.GenderFeminine, Phonetic: "ʃa"}

	before := existing.Clone()
	merged := Merge(existing, incoming)

	if diff := cmp.Diff(before, existing); diff != "" {
		t.Errorf("existing was modified (-before +after):\n%s", diff)
	}
	assert.Len(t, merged.PartsOfSpeech, 2)
	assert.Equal(t, model.GenderFeminine, merged.Gender)
	assert.Equal(t, "ʃa", merged.Phonetic)
}

func TestMerge_KeepsFirstLabelAndScalars(t *testing.T) {
	existing := model.WordEntry{Word: "Paris", PartsOfSpeech: []model.PartOfSpeech{{Abbr: "n.", Full: "nom"}},
		Gender: model.GenderMasculine, Phonetic: "paʁi"}
	incoming := model.WordEntry{Word: "paris", PartsOfSpeech: []model.PartOfSpeech{{Abbr: "n.", Full: "noun"}},
		Gender: model.GenderFeminine, Phonetic: "other"}

	merged := Merge(existing, incoming)

	assert.Equal(t, "Paris", merged.Word)
	assert.Equal(t, []model.PartOfSpeech{{Abbr: "n.", Full: "nom"}}, merged.PartsOfSpeech)
	assert.Equal(t, model.GenderMasculine, merged.Gender)
	assert.Equal(t, "paʁi", merged.Phonetic)
}

func TestBuilder_BuildStampsMetadata(t *testing.T) {
	loadedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	outcome := model.LoadOutcome{
		Entries: []model.WordEntry{
			{Word: "chat", PartsOfSpeech: []model.PartOfSpeech{nounTag}},
			{Word: "chat", PartsOfSpeech: []model.PartOfSpeech{verbTag}},
			{Word: "manger", PartsOfSpeech: []model.PartOfSpeech{verbTag}},
		},
		CountsByPartition: map[string]int{"noun": 1, "verb": 2},
		FailedPartitions:  []string{"adj"},
		Source:            model.LoadSourcePartitions,
		LoadedAt:          loadedAt,
	}

	ix := NewBuilder(nil).Build(outcome)

	want := model.DictionaryMetadata{
		TotalCount:        2,
		CountsByPartition: map[string]int{"noun": 1, "verb": 2},
		LoadedAt:          loadedAt,
		Source:            model.LoadSourcePartitions,
		FailedPartitions:  []string{"adj"},
	}
	if diff := cmp.Diff(want, ix.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

// generateTestEntries creates entries with shared prefixes and some repeated headwords.
func generateTestEntries(count int) []model.WordEntry {
	entries := make([]model.WordEntry, count)
	for i := 0; i < count; i++ {
		tag := nounTag
		if i%3 == 0 {
			tag = verbTag
		}
		entries[i] = model.WordEntry{
			Word:          fmt.Sprintf("mot%d", i%(count/2+1)),
			PartsOfSpeech: []model.PartOfSpeech{tag},
			Definitions:   []model.Definition{{Text: fmt.Sprintf("definition %d", i)}},
		}
	}
	return entries
}

func BenchmarkBuildEntries(b *testing.B) {
	sizes := []int{1000, 10000, 50000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("entries_%d", size), func(b *testing.B) {
			entries := generateTestEntries(size)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				BuildEntries(entries)
			}
		})
	}
}
