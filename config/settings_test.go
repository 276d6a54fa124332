package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDictionarySettings_ApplyDefaults(t *testing.T) {
	settings := DictionarySettings{SourceDir: "./dicts"}
	settings.ApplyDefaults()

	assert.Equal(t, DefaultPartitions, settings.Partitions)
	assert.Equal(t, DefaultLegacyFiles, settings.LegacyFiles)
	assert.Equal(t, 15*time.Second, settings.FetchTimeout)
	assert.Equal(t, len(DefaultPartitions), settings.MaxConcurrentFetches)
	assert.Equal(t, "fr", settings.Collation)

	// Defaults must not alias the package-level slices
	settings.Partitions[0] = "changed"
	assert.Equal(t, "noun", DefaultPartitions[0])
}

func TestDictionarySettings_Validate(t *testing.T) {
	tests := []struct {
		name           string
		settings       DictionarySettings
		expectedErrors int
	}{
		{
			name: "valid directory source",
			settings: DictionarySettings{
				Partitions:           []string{"noun", "verb"},
				SourceDir:            "./dicts",
				MaxConcurrentFetches: 2,
				Collation:            "fr",
			},
			expectedErrors: 0,
		},
		{
			name: "valid http source",
			settings: DictionarySettings{
				Partitions:           []string{"noun"},
				BaseURL:              "https://example.com/dicts",
				MaxConcurrentFetches: 1,
				Collation:            "en-GB",
			},
			expectedErrors: 0,
		},
		{
			name: "duplicate partition",
			settings: DictionarySettings{
				Partitions:           []string{"noun", "noun"},
				SourceDir:            "./dicts",
				MaxConcurrentFetches: 1,
				Collation:            "fr",
			},
			expectedErrors: 1,
		},
		{
			name: "path traversal and empty name",
			settings: DictionarySettings{
				Partitions:           []string{"../secret", " "},
				SourceDir:            "./dicts",
				MaxConcurrentFetches: 1,
				Collation:            "fr",
			},
			expectedErrors: 2,
		},
		{
			name: "no source",
			settings: DictionarySettings{
				Partitions:           []string{"noun"},
				MaxConcurrentFetches: 1,
				Collation:            "fr",
			},
			expectedErrors: 1,
		},
		{
			name: "bad url and collation",
			settings: DictionarySettings{
				Partitions:           []string{"noun"},
				BaseURL:              "ftp://example.com",
				MaxConcurrentFetches: 1,
				Collation:            "not a language tag",
			},
			expectedErrors: 2,
		},
		{
			name: "no partitions and no workers",
			settings: DictionarySettings{
				SourceDir: "./dicts",
				Collation: "fr",
			},
			expectedErrors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.settings.Validate()
			assert.Len(t, errors, tt.expectedErrors, "errors: %v", errors)
		})
	}
}

func TestDictionarySettings_CollationTag(t *testing.T) {
	settings := DictionarySettings{Collation: "de"}
	assert.Equal(t, "de", settings.CollationTag().String())

	settings.Collation = "???"
	assert.Equal(t, "fr", settings.CollationTag().String())
}
