// Package indexing builds the exact, prefix and part-of-speech indexes over a
// loaded corpus.
package indexing

import (
	"log/slog"
	"time"

	"github.com/gcbaptista/go-lexicon/index"
	"github.com/gcbaptista/go-lexicon/internal/folding"
	"github.com/gcbaptista/go-lexicon/model"
)

// Builder turns a normalized entry sequence into index.Indexes.
// It does no I/O and holds no state between builds, so one Builder can be
// shared by every load.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil logger means slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build indexes a complete load outcome and stamps the metadata.
func (b *Builder) Build(outcome model.LoadOutcome) *index.Indexes {
	start := time.Now()
	ix := BuildEntries(outcome.Entries)

	for partition, count := range outcome.CountsByPartition {
		ix.Metadata.CountsByPartition[partition] = count
	}
	ix.Metadata.FailedPartitions = append([]string(nil), outcome.FailedPartitions...)
	ix.Metadata.Source = outcome.Source
	ix.Metadata.LoadedAt = outcome.LoadedAt
	if ix.Metadata.LoadedAt.IsZero() {
		ix.Metadata.LoadedAt = time.Now()
	}

	b.logger.Info("index build complete",
		slog.Int("input_entries", len(outcome.Entries)),
		slog.Int("headwords", ix.Len()),
		slog.Int("prefixes", len(ix.Prefix)),
		slog.Int("pos_tags", len(ix.Pos)),
		slog.Duration("took", time.Since(start)),
	)
	return ix
}

// BuildEntries makes a single pass over entries:
//
//  1. Each headword is case-folded. A new key gets a fresh arena slot; a key
//     seen before has its slot replaced by the merge of the stored entry and
//     the incoming one (see Merge).
//  2. A new key is filed under each of its prefixes of length 1 to
//     index.PrefixMaxLen, unless the bucket is already full. Full buckets
//     never evict, so a repeated key needs no second pass.
//  3. The slot is filed under every part-of-speech key the incoming entry
//     carries, once per tag.
//
// The result depends only on the input order. Entries with an empty
// headword are skipped.
func BuildEntries(entries []model.WordEntry) *index.Indexes {
	ix := index.New()
	posSeen := make(map[string]map[int]struct{})

	for _, entry := range entries {
		key := folding.Key(entry.Word)
		if key == "" {
			continue
		}

		pos, exists := ix.Exact[key]
		if exists {
			ix.Entries[pos] = Merge(ix.Entries[pos], entry)
		} else {
			pos = len(ix.Entries)
			ix.Entries = append(ix.Entries, Merge(model.WordEntry{Word: folding.Whitespace(entry.Word)}, entry))
			ix.Keys = append(ix.Keys, key)
			ix.Exact[key] = pos

			for _, prefix := range folding.Prefixes(key, index.PrefixMaxLen) {
				if len(ix.Prefix[prefix]) >= index.PrefixBucketCap {
					continue
				}
				ix.Prefix[prefix] = append(ix.Prefix[prefix], pos)
			}
		}

		for _, tag := range entry.PartsOfSpeech {
			tagKey := tag.Key()
			if tagKey == "" {
				continue
			}
			seen, ok := posSeen[tagKey]
			if !ok {
				seen = make(map[int]struct{})
				posSeen[tagKey] = seen
			}
			if _, dup := seen[pos]; dup {
				continue
			}
			seen[pos] = struct{}{}
			ix.Pos[tagKey] = append(ix.Pos[tagKey], pos)
		}
	}

	ix.Metadata.TotalCount = len(ix.Entries)
	return ix
}

// Merge returns a new entry combining existing with incoming. The display
// word and every label already on existing are kept; incoming contributes
// part-of-speech tags with an unseen key, definitions with an unseen text,
// and gender, phonetic or conjugation when existing lacks them. Neither
// argument is modified.
func Merge(existing, incoming model.WordEntry) model.WordEntry {
	merged := existing.Clone()

	seenPos := make(map[string]struct{}, len(merged.PartsOfSpeech)+len(incoming.PartsOfSpeech))
	keptPos := merged.PartsOfSpeech[:0]
	for _, p := range merged.PartsOfSpeech {
		if _, dup := seenPos[p.Key()]; dup || p.Key() == "" {
			continue
		}
		seenPos[p.Key()] = struct{}{}
		keptPos = append(keptPos, p)
	}
	for _, p := range incoming.PartsOfSpeech {
		if _, dup := seenPos[p.Key()]; dup || p.Key() == "" {
			continue
		}
		seenPos[p.Key()] = struct{}{}
		keptPos = append(keptPos, p)
	}
	merged.PartsOfSpeech = nilIfEmptyPos(keptPos)

	seenDefs := make(map[string]struct{}, len(merged.Definitions)+len(incoming.Definitions))
	keptDefs := merged.Definitions[:0]
	for _, d := range merged.Definitions {
		if _, dup := seenDefs[d.Text]; dup {
			continue
		}
		seenDefs[d.Text] = struct{}{}
		keptDefs = append(keptDefs, d)
	}
	for _, d := range incoming.Definitions {
		if _, dup := seenDefs[d.Text]; dup {
			continue
		}
		seenDefs[d.Text] = struct{}{}
		def := model.Definition{Text: d.Text}
		if d.Examples != nil {
			def.Examples = append([]model.Example(nil), d.Examples...)
		}
		keptDefs = append(keptDefs, def)
	}
	merged.Definitions = nilIfEmptyDefs(keptDefs)

	if merged.Gender == model.GenderNone {
		merged.Gender = incoming.Gender
	}
	if merged.Phonetic == "" {
		merged.Phonetic = incoming.Phonetic
	}
	if merged.Conjugation == "" {
		merged.Conjugation = incoming.Conjugation
	}

	return merged
}

func nilIfEmptyPos(p []model.PartOfSpeech) []model.PartOfSpeech {
	if len(p) == 0 {
		return nil
	}
	return p
}

func nilIfEmptyDefs(d []model.Definition) []model.Definition {
	if len(d) == 0 {
		return nil
	}
	return d
}
