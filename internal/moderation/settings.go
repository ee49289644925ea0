package moderation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Settings carries the per-request overrides from a flag command.
type Settings struct {
	// Rules replaces the active catalog when non-empty.
	Rules []Rule
	// ProfanityWords extends the built-in lexicon.
	ProfanityWords []string
}

// ParseSettings reads the request settings object. It never fails: malformed
// members are ignored, a rules value that is not an array (or yields no usable
// rule) leaves Rules empty so the default catalog applies, and rule entries that
// are not objects or whose patterns are not an array are skipped. A rule with
// no patterns member is kept and matches nothing.
func ParseSettings(raw json.RawMessage) Settings {
	var envelope struct {
		Rules          json.RawMessage `json:"rules"`
		ProfanityWords json.RawMessage `json:"profanityWords"`
	}
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &envelope) != nil {
		return Settings{}
	}
	return Settings{
		Rules:          parseRules(envelope.Rules),
		ProfanityWords: normalizePatterns(stringArray(envelope.ProfanityWords)),
	}
}

func parseRules(raw json.RawMessage) []Rule {
	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	var rules []Rule
	for _, entry := range entries {
		var fields map[string]json.RawMessage
		if json.Unmarshal(entry, &fields) != nil || fields == nil {
			continue
		}
		if raw, ok := fields["patterns"]; ok {
			var patterns []json.RawMessage
			if json.Unmarshal(raw, &patterns) != nil || patterns == nil {
				continue
			}
		}
		rules = append(rules, newRule(
			stringField(fields["ruleId"]),
			stringField(fields["category"]),
			stringField(fields["priority"]),
			stringField(fields["reason"]),
			stringArray(fields["patterns"]),
		))
	}
	return rules
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// stringArray keeps the string members of a JSON array and drops the rest.
func stringArray(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringField(item); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
