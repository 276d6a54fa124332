// Package index holds the lookup structures built over a dictionary corpus.
package index

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/gcbaptista/go-lexicon/model"
)

const (
	// PrefixMaxLen is the longest prefix (in runes) that gets a bucket.
	PrefixMaxLen = 5
	// PrefixBucketCap is the hard cap on entries per prefix bucket.
	PrefixBucketCap = 100

	snapshotVersion = 1
)

// Indexes is one complete, immutable build of the dictionary.
//
// Entries is an arena of merged headwords. Keys[i] is the case-folded key of
// Entries[i], in first-encounter order. Exact, Prefix and Pos refer to
// entries by arena position, so a merged entry is stored exactly once and
// every structure sees the same value.
//
// An Indexes value is never modified after the builder returns it; a reload
// produces a new value that replaces the old one as a unit.
type Indexes struct {
	Entries  []model.WordEntry
	Keys     []string
	Exact    map[string]int
	Prefix   map[string][]int
	Pos      map[string][]int
	Metadata model.DictionaryMetadata
}

// New returns empty, initialized indexes.
func New() *Indexes {
	return &Indexes{
		Exact:  make(map[string]int),
		Prefix: make(map[string][]int),
		Pos:    make(map[string][]int),
		Metadata: model.DictionaryMetadata{
			CountsByPartition: make(map[string]int),
		},
	}
}

// Len returns the number of distinct headwords.
func (ix *Indexes) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.Entries)
}

// Empty reports whether nothing is indexed.
func (ix *Indexes) Empty() bool {
	return ix.Len() == 0
}

// Lookup returns the entry for an already folded key.
func (ix *Indexes) Lookup(key string) (model.WordEntry, bool) {
	if ix == nil {
		return model.WordEntry{}, false
	}
	i, ok := ix.Exact[key]
	if !ok {
		return model.WordEntry{}, false
	}
	return ix.Entries[i], true
}

// PrefixBucket returns the entries filed under an already folded prefix, in
// corpus encounter order. The result is a fresh slice.
func (ix *Indexes) PrefixBucket(prefix string) []model.WordEntry {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.Prefix[prefix])
}

// PrefixKeys returns the folded keys filed under prefix, in bucket order.
func (ix *Indexes) PrefixKeys(prefix string) []string {
	if ix == nil {
		return nil
	}
	positions := ix.Prefix[prefix]
	keys := make([]string, len(positions))
	for i, p := range positions {
		keys[i] = ix.Keys[p]
	}
	return keys
}

// PosBucket returns the entries tagged with a part-of-speech key.
func (ix *Indexes) PosBucket(tag string) []model.WordEntry {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.Pos[tag])
}

// PosTags returns the part-of-speech keys with their entry counts.
func (ix *Indexes) PosTags() map[string]int {
	tags := make(map[string]int)
	if ix == nil {
		return tags
	}
	for tag, positions := range ix.Pos {
		tags[tag] = len(positions)
	}
	return tags
}

func (ix *Indexes) resolve(positions []int) []model.WordEntry {
	entries := make([]model.WordEntry, len(positions))
	for i, p := range positions {
		entries[i] = ix.Entries[p]
	}
	return entries
}

// Check verifies the structural invariants that a decoded snapshot must
// satisfy before it is served.
func (ix *Indexes) Check() error {
	if len(ix.Keys) != len(ix.Entries) {
		return fmt.Errorf("index has %d keys for %d entries", len(ix.Keys), len(ix.Entries))
	}
	if len(ix.Exact) != len(ix.Entries) {
		return fmt.Errorf("exact index has %d keys for %d entries", len(ix.Exact), len(ix.Entries))
	}
	for key, p := range ix.Exact {
		if p < 0 || p >= len(ix.Entries) || ix.Keys[p] != key {
			return fmt.Errorf("exact index key '%s' points at the wrong entry", key)
		}
	}
	for prefix, positions := range ix.Prefix {
		if len(positions) > PrefixBucketCap {
			return fmt.Errorf("prefix bucket '%s' holds %d entries", prefix, len(positions))
		}
		for _, p := range positions {
			if p < 0 || p >= len(ix.Entries) {
				return fmt.Errorf("prefix bucket '%s' has position %d out of range", prefix, p)
			}
		}
	}
	for tag, positions := range ix.Pos {
		for _, p := range positions {
			if p < 0 || p >= len(ix.Entries) {
				return fmt.Errorf("part-of-speech bucket '%s' has position %d out of range", tag, p)
			}
		}
	}
	return nil
}

// gobIndexesData is the on-disk form of Indexes.
type gobIndexesData struct {
	Version  int
	Entries  []model.WordEntry
	Keys     []string
	Prefix   map[string][]int
	Pos      map[string][]int
	Metadata model.DictionaryMetadata
}

// GobEncode implements the gob.GobEncoder interface for Indexes.
// Exact is not stored; it is derived from Keys on decode.
func (ix *Indexes) GobEncode() ([]byte, error) {
	dataToEncode := gobIndexesData{
		Version:  snapshotVersion,
		Entries:  ix.Entries,
		Keys:     ix.Keys,
		Prefix:   ix.Prefix,
		Pos:      ix.Pos,
		Metadata: ix.Metadata,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for Indexes.
func (ix *Indexes) GobDecode(data []byte) error {
	decodedData := gobIndexesData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}
	if decodedData.Version != snapshotVersion {
		return fmt.Errorf("unsupported index snapshot version %d", decodedData.Version)
	}

	ix.Entries = decodedData.Entries
	ix.Keys = decodedData.Keys
	ix.Prefix = decodedData.Prefix
	ix.Pos = decodedData.Pos
	ix.Metadata = decodedData.Metadata

	// Ensure maps are initialized if they were nil after decoding (e.g. an empty corpus)
	if ix.Prefix == nil {
		ix.Prefix = make(map[string][]int)
	}
	if ix.Pos == nil {
		ix.Pos = make(map[string][]int)
	}
	if ix.Metadata.CountsByPartition == nil {
		ix.Metadata.CountsByPartition = make(map[string]int)
	}
	ix.Exact = make(map[string]int, len(ix.Keys))
	for i, key := range ix.Keys {
		ix.Exact[key] = i
	}

	return ix.Check()
}
