package moderation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is an operator-supplied replacement for the built-in defaults.
type Catalog struct {
	Rules          []Rule
	ProfanityWords []string
}

type catalogFile struct {
	Rules []struct {
		RuleID   string   `yaml:"ruleId"`
		Category string   `yaml:"category"`
		Priority string   `yaml:"priority"`
		Reason   string   `yaml:"reason"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"rules"`
	ProfanityWords []string `yaml:"profanityWords"`
}

// LoadCatalog reads a YAML catalog file:
//
//	rules:
//	  - ruleId: music_instruments
//	    category: music
//	    priority: low
//	    reason: Mentions musical instruments.
//	    patterns: [guitar, drum]
//	profanityWords: [heck]
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read moderation catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse moderation catalog %s: %w", path, err)
	}
	catalog := Catalog{ProfanityWords: normalizePatterns(file.ProfanityWords)}
	for _, r := range file.Rules {
		catalog.Rules = append(catalog.Rules, newRule(r.RuleID, r.Category, r.Priority, r.Reason, r.Patterns))
	}
	return catalog, nil
}

// OpenEngine builds an engine from the catalog at path, or from the built-in
// catalog when path is empty.
func OpenEngine(path string) (*Engine, error) {
	if path == "" {
		return NewEngine(), nil
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return NewEngineWithCatalog(catalog), nil
}
