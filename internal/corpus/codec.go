package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/k3a/html2text"

	"github.com/gcbaptista/go-lexicon/internal/folding"
	"github.com/gcbaptista/go-lexicon/model"
)

// rawPartition is the on-disk partition document:
//
//	{"name": "noun", "count": 2, "words": [{"word": "chat", ...}, ...]}
//
// A bare array of words is accepted too. A document without "words" decodes
// to an empty partition.
type rawPartition struct {
	Name  string     `json:"name"`
	Count int        `json:"count"`
	Words *[]rawWord `json:"words"`
}

type rawWord struct {
	Word        string          `json:"word"`
	Phonetic    string          `json:"phonetic"`
	Pos         []rawPos        `json:"pos"`
	Definitions []rawDefinition `json:"definitions"`
	Gender      string          `json:"gender"`
	Conjugation string          `json:"conjugation"`
}

type rawPos struct {
	Abbr string `json:"abbr"`
	Full string `json:"full"`
}

type rawDefinition struct {
	Text     string       `json:"text"`
	Examples []rawExample `json:"examples"`
}

type rawExample struct {
	Fr string `json:"fr"`
	Zh string `json:"zh"`
}

// DecodePartition parses one partition document and normalizes its words.
// Warnings go to slog.Default().
func DecodePartition(r io.Reader) ([]model.WordEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read partition: %w", err)
	}

	var words []rawWord
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return nil, fmt.Errorf("decode partition: %w", err)
		}
	} else {
		var doc rawPartition
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode partition: %w", err)
		}
		if doc.Words == nil {
			slog.Default().With("component", "corpus").Warn("partition document has no words",
				slog.String("partition", doc.Name),
				slog.Int("count", doc.Count))
		} else {
			words = *doc.Words
		}
	}

	entries := make([]model.WordEntry, 0, len(words))
	for _, w := range words {
		if entry, ok := normalizeWord(w); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// normalizeWord cleans one raw word. Words with an empty headword are
// dropped.
func normalizeWord(w rawWord) (model.WordEntry, bool) {
	headword := folding.Whitespace(w.Word)
	if headword == "" {
		return model.WordEntry{}, false
	}

	entry := model.WordEntry{
		Word:        headword,
		Gender:      model.ParseGender(w.Gender),
		Phonetic:    strings.TrimSpace(w.Phonetic),
		Conjugation: strings.TrimSpace(w.Conjugation),
	}

	for _, p := range w.Pos {
		tag := model.PartOfSpeech{Abbr: strings.TrimSpace(p.Abbr), Full: strings.TrimSpace(p.Full)}
		if tag.Key() == "" {
			continue
		}
		entry.PartsOfSpeech = append(entry.PartsOfSpeech, tag)
	}

	for _, d := range w.Definitions {
		def := model.Definition{Text: cleanText(d.Text)}
		for _, ex := range d.Examples {
			source := strings.TrimSpace(ex.Fr)
			if source == "" {
				continue
			}
			def.Examples = append(def.Examples, model.Example{Source: source, Target: strings.TrimSpace(ex.Zh)})
		}
		if def.Text == "" && len(def.Examples) == 0 {
			continue
		}
		entry.Definitions = append(entry.Definitions, def)
	}

	return entry, true
}

// cleanText strips HTML markup and entities from a definition. Plain text is
// only trimmed so that its line structure survives.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html2text.HTML2Text(s)
	}
	return strings.TrimSpace(s)
}
