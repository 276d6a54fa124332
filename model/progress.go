package model

import (
	"fmt"
	"time"
)

// Quality is the learner's self-assessment of a word.
type Quality int

const (
	QualityWeak      Quality = 0
	QualityUncertain Quality = 1
	QualityMastered  Quality = 2
)

// Valid reports whether q is one of the three known ratings.
func (q Quality) Valid() bool {
	return q >= QualityWeak && q <= QualityMastered
}

func (q Quality) String() string {
	switch q {
	case QualityWeak:
		return "weak"
	case QualityUncertain:
		return "uncertain"
	case QualityMastered:
		return "mastered"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// ParseQuality accepts either the numeric rating or its name.
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "0", "weak":
		return QualityWeak, true
	case "1", "uncertain":
		return QualityUncertain, true
	case "2", "mastered":
		return QualityMastered, true
	}
	return 0, false
}

// VocabProgressRecord is the learning state of one word.
type VocabProgressRecord struct {
	Quality     Quality   `json:"quality"`
	ReviewCount int       `json:"count"`
	LastReview  time.Time `json:"last_review"`
}

// LearnedWord pairs a word with its progress record for listings.
type LearnedWord struct {
	Word string `json:"word"`
	VocabProgressRecord
}

// ProgressStats summarises learning progress against the loaded corpus.
type ProgressStats struct {
	TotalCorpusCount int `json:"total_corpus_count"`
	LearnedCount     int `json:"learned_count"`
	MasteredCount    int `json:"mastered_count"`
}

// FavoriteEntry is a bookmarked headword.
type FavoriteEntry struct {
	Word          string         `json:"word"`
	Phonetic      string         `json:"phonetic,omitempty"`
	PartsOfSpeech []PartOfSpeech `json:"parts_of_speech,omitempty"`
	AddedAt       time.Time      `json:"added_at"`
}
