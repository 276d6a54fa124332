package model

import "strings"

// Gender is the grammatical gender of a noun headword.
type Gender string

const (
	GenderNone      Gender = ""
	GenderMasculine Gender = "masculine"
	GenderFeminine  Gender = "feminine"
	GenderBoth      Gender = "both"
)

// ParseGender maps the short codes used by corpus partitions ("m", "f", "mf")
// as well as the long names to a Gender. Unknown non-empty codes are treated
// as GenderBoth, matching how the corpus marks epicene nouns.
func ParseGender(code string) Gender {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "":
		return GenderNone
	case "m", "masc", "masculine":
		return GenderMasculine
	case "f", "fem", "feminine":
		return GenderFeminine
	default:
		return GenderBoth
	}
}

// Code returns the short corpus code for the gender.
func (g Gender) Code() string {
	switch g {
	case GenderMasculine:
		return "m"
	case GenderFeminine:
		return "f"
	case GenderBoth:
		return "mf"
	default:
		return ""
	}
}

// PartOfSpeech is a part-of-speech tag with its abbreviated and full label,
// e.g. {"n. m.", "masculine noun"}.
type PartOfSpeech struct {
	Abbr string `json:"abbr,omitempty"`
	Full string `json:"full,omitempty"`
}

// Key identifies the tag for deduplication and for the part-of-speech index:
// the abbreviation when present, otherwise the full form.
func (p PartOfSpeech) Key() string {
	if p.Abbr != "" {
		return p.Abbr
	}
	return p.Full
}

// Label is the human readable form, preferring the full label.
func (p PartOfSpeech) Label() string {
	if p.Full != "" {
		return p.Full
	}
	return p.Abbr
}

// Example is a usage example in the source language with an optional
// translation in the target language.
type Example struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
}

// Definition is one sense of a headword.
type Definition struct {
	Text     string    `json:"text"`
	Examples []Example `json:"examples,omitempty"`
}

// WordEntry is a single dictionary headword.
// Entries are treated as values: merging two entries produces a new entry
// rather than modifying either input.
type WordEntry struct {
	Word          string         `json:"word"`
	PartsOfSpeech []PartOfSpeech `json:"parts_of_speech,omitempty"`
	Definitions   []Definition   `json:"definitions,omitempty"`
	Gender        Gender         `json:"gender,omitempty"`
	Phonetic      string         `json:"phonetic,omitempty"`
	Conjugation   string         `json:"conjugation,omitempty"`
}

// HasPartOfSpeech reports whether the entry carries a tag with the given key.
func (w WordEntry) HasPartOfSpeech(key string) bool {
	for _, p := range w.PartsOfSpeech {
		if p.Key() == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (w WordEntry) Clone() WordEntry {
	c := w
	if w.PartsOfSpeech != nil {
		c.PartsOfSpeech = append([]PartOfSpeech(nil), w.PartsOfSpeech...)
	}
	if w.Definitions != nil {
		c.Definitions = make([]Definition, len(w.Definitions))
		for i, d := range w.Definitions {
			c.Definitions[i] = Definition{Text: d.Text}
			if d.Examples != nil {
				c.Definitions[i].Examples = append([]Example(nil), d.Examples...)
			}
		}
	}
	return c
}
