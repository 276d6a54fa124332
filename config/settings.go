package config

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DefaultPartitions are the corpus partitions, one per part of speech, in
// the order their entries are concatenated before indexing.
var DefaultPartitions = []string{"noun", "verb", "adj", "adv", "conj", "prep", "pron", "det"}

// DefaultLegacyFiles are tried in order when no partition can be loaded.
var DefaultLegacyFiles = []string{"french_dict", "gonggong"}

// DictionarySettings configures where the corpus comes from and how it is
// loaded.
//
// Partition order matters: entries are concatenated in this order before the
// index build, so it decides which partition's labels win when two
// partitions define the same headword, and the encounter order inside
// prefix buckets.
type DictionarySettings struct {
	Partitions           []string      `yaml:"partitions"             env:"DICT_PARTITIONS"             env-separator:","`
	LegacyFiles          []string      `yaml:"legacy_files"           env:"DICT_LEGACY_FILES"           env-separator:","`
	SourceDir            string        `yaml:"source_dir"             env:"DICT_SOURCE_DIR"             env-default:"./public/data/dicts"`
	BaseURL              string        `yaml:"base_url"               env:"DICT_BASE_URL"`                                 // When set, partitions are fetched over HTTP instead of from SourceDir
	FetchTimeout         time.Duration `yaml:"fetch_timeout"          env:"DICT_FETCH_TIMEOUT"          env-default:"15s"` // Per partition
	MaxConcurrentFetches int           `yaml:"max_concurrent_fetches" env:"DICT_MAX_CONCURRENT_FETCHES" env-default:"8"`
	Collation            string        `yaml:"collation"              env:"DICT_COLLATION"              env-default:"fr"`    // BCP 47 tag used to sort prefix matches
	UseSnapshot          bool          `yaml:"use_snapshot"           env:"DICT_USE_SNAPSHOT"           env-default:"false"` // Restore the last built indexes at start-up
	SnapshotDir          string        `yaml:"snapshot_dir"           env:"DICT_SNAPSHOT_DIR"           env-default:"./lexicon_data"`
}

// ApplyDefaults fills the fields that have no usable env-default.
func (settings *DictionarySettings) ApplyDefaults() {
	if len(settings.Partitions) == 0 {
		settings.Partitions = append([]string(nil), DefaultPartitions...)
	}
	if len(settings.LegacyFiles) == 0 {
		settings.LegacyFiles = append([]string(nil), DefaultLegacyFiles...)
	}
	if settings.FetchTimeout <= 0 {
		settings.FetchTimeout = 15 * time.Second
	}
	if settings.MaxConcurrentFetches <= 0 {
		settings.MaxConcurrentFetches = len(settings.Partitions)
	}
	if settings.Collation == "" {
		settings.Collation = "fr"
	}
}

// Validate returns one message per problem; an empty result means the
// settings are usable.
func (settings *DictionarySettings) Validate() []string {
	var errors []string

	errors = append(errors, checkNames("partitions", settings.Partitions)...)
	errors = append(errors, checkNames("legacy_files", settings.LegacyFiles)...)

	if len(settings.Partitions) == 0 {
		errors = append(errors, "At least one partition is required")
	}
	if strings.TrimSpace(settings.SourceDir) == "" && strings.TrimSpace(settings.BaseURL) == "" {
		errors = append(errors, "Either source_dir or base_url must be set")
	}
	if settings.BaseURL != "" && !strings.HasPrefix(settings.BaseURL, "http://") && !strings.HasPrefix(settings.BaseURL, "https://") {
		errors = append(errors, "base_url '"+settings.BaseURL+"' must be an http or https URL")
	}
	if settings.MaxConcurrentFetches < 1 {
		errors = append(errors, "max_concurrent_fetches must be at least 1")
	}
	if _, err := language.Parse(settings.Collation); err != nil {
		errors = append(errors, "Invalid collation language '"+settings.Collation+"'")
	}

	return errors
}

// CollationTag returns the parsed collation language, or French when the
// configured tag is invalid.
func (settings *DictionarySettings) CollationTag() language.Tag {
	tag, err := language.Parse(settings.Collation)
	if err != nil {
		return language.French
	}
	return tag
}

// checkNames reports empty, duplicate and path-like names.
func checkNames(fieldName string, names []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, "Name in "+fieldName+" cannot be empty or whitespace-only")
			continue
		}
		if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
			errors = append(errors, "Name '"+name+"' in "+fieldName+" must not contain path separators")
		}
		if seen[name] {
			errors = append(errors, "Duplicate name '"+name+"' found in "+fieldName)
		}
		seen[name] = true
	}

	return errors
}
