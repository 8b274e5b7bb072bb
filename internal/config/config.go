// Package config loads the optional on-disk `.fyaml.yml` preferences file
// and merges it under CLI flags, the same three-tier precedence (flags >
// file > built-in defaults) the teacher's config package establishes for
// `.conductor.yml`. This file is purely an ambient CLI convenience; it
// carries none of the packed document's own state (spec §6 "Persisted
// state: None" is about the domain artifact, not this preferences file).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the scan/parse/assemble defaults a user would otherwise
// have to repeat on every invocation via flags.
type Config struct {
	IncludeHidden     bool     `yaml:"include_hidden"`
	EditorJunkGlobs   []string `yaml:"editor_junk_globs"`
	AllowDottedKeys   bool     `yaml:"allow_dotted_keys"`
	AllowReservedKeys bool     `yaml:"allow_reserved_keys"`
	MaxYAMLBytes      int64    `yaml:"max_yaml_bytes"`

	MultiDoc string `yaml:"multi_doc"` // "error" | "first" | "all"
	SeqGaps  string `yaml:"seq_gaps"`  // "error" | "warn" | "allow"

	RootMode   string `yaml:"root_mode"` // "map-root" | "seq-root" | "file-root"
	RootFile   string `yaml:"root_file"`
	MergeUnder string `yaml:"merge_under"`

	Format   string `yaml:"format"` // "yaml" | "json"
	NoHeader bool   `yaml:"no_header"`
	Preserve bool   `yaml:"preserve"`
	Strict   bool   `yaml:"strict"`

	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`

	NormalizeYAML11Bools bool `yaml:"normalize_yaml11_bools"`
}

// DefaultConfig returns the built-in defaults named across spec §4.1-§4.4.
func DefaultConfig() *Config {
	return &Config{
		IncludeHidden:   false,
		EditorJunkGlobs: []string{"*~", ".DS_Store", "Thumbs.db"},
		MultiDoc:        "error",
		SeqGaps:         "warn",
		RootMode:        "map-root",
		Format:          "yaml",
		LogLevel:        "info",
		LogDir:          ".fyaml/logs",
	}
}

// LoadConfig reads path (normally ".fyaml.yml" at the scan root) and
// merges any present sections onto DefaultConfig(). A missing file is not
// an error: defaults are returned untouched, matching the teacher's
// LoadConfig contract for `.conductor.yml`.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var typed Config
	if err := yaml.Unmarshal(data, &typed); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Unmarshal a second time into a generic map so that an explicitly
	// present-but-zero-value section (e.g. `strict: false`) is still
	// distinguished from a section absent entirely — the same
	// "unmarshal twice" trick the teacher's config.LoadConfig uses to
	// tell "unset" apart from "zero value" before merging onto defaults.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	mergeIfPresent(raw, "include_hidden", &cfg.IncludeHidden, typed.IncludeHidden)
	if _, ok := raw["editor_junk_globs"]; ok {
		cfg.EditorJunkGlobs = typed.EditorJunkGlobs
	}
	mergeIfPresent(raw, "allow_dotted_keys", &cfg.AllowDottedKeys, typed.AllowDottedKeys)
	mergeIfPresent(raw, "allow_reserved_keys", &cfg.AllowReservedKeys, typed.AllowReservedKeys)
	if _, ok := raw["max_yaml_bytes"]; ok {
		cfg.MaxYAMLBytes = typed.MaxYAMLBytes
	}
	if _, ok := raw["multi_doc"]; ok {
		cfg.MultiDoc = typed.MultiDoc
	}
	if _, ok := raw["seq_gaps"]; ok {
		cfg.SeqGaps = typed.SeqGaps
	}
	if _, ok := raw["root_mode"]; ok {
		cfg.RootMode = typed.RootMode
	}
	if _, ok := raw["root_file"]; ok {
		cfg.RootFile = typed.RootFile
	}
	if _, ok := raw["merge_under"]; ok {
		cfg.MergeUnder = typed.MergeUnder
	}
	if _, ok := raw["format"]; ok {
		cfg.Format = typed.Format
	}
	mergeIfPresent(raw, "no_header", &cfg.NoHeader, typed.NoHeader)
	mergeIfPresent(raw, "preserve", &cfg.Preserve, typed.Preserve)
	mergeIfPresent(raw, "strict", &cfg.Strict, typed.Strict)
	if _, ok := raw["log_level"]; ok {
		cfg.LogLevel = typed.LogLevel
	}
	if _, ok := raw["log_dir"]; ok {
		cfg.LogDir = typed.LogDir
	}
	mergeIfPresent(raw, "normalize_yaml11_bools", &cfg.NormalizeYAML11Bools, typed.NormalizeYAML11Bools)

	return cfg, nil
}

func mergeIfPresent(raw map[string]interface{}, key string, dst *bool, val bool) {
	if _, ok := raw[key]; ok {
		*dst = val
	}
}
