package moderation

import "strings"

// Priority ranks how serious a match is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting; higher is more severe.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority normalizes a priority name. Unknown values become medium.
func ParsePriority(value string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(value))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// Rule is one entry of the moderation catalog. Patterns are stored
// lower-cased and trimmed.
type Rule struct {
	ID       string   `json:"ruleId" yaml:"ruleId"`
	Category string   `json:"category" yaml:"category"`
	Priority Priority `json:"priority" yaml:"priority"`
	Reason   string   `json:"reason" yaml:"reason"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

const (
	defaultRuleID       = "custom_rule"
	defaultRuleCategory = "custom"
	defaultRuleReason   = "Matched moderation rule."

	profanityRuleID   = "profanity"
	profanityCategory = "language"
	profanityReason   = "Contains profanity or offensive language."
)

// newRule applies the catalog defaults to caller-supplied fields.
func newRule(id, category, priority, reason string, patterns []string) Rule {
	return Rule{
		ID:       orDefault(id, defaultRuleID),
		Category: orDefault(category, defaultRuleCategory),
		Priority: ParsePriority(priority),
		Reason:   orDefault(reason, defaultRuleReason),
		Patterns: normalizePatterns(patterns),
	}
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// DefaultRules returns a fresh copy of the built-in catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "aqeedah_christmas",
			Category: "aqeedah",
			Priority: PriorityHigh,
			Reason:   "Promotes non-Islamic religious celebration.",
			Patterns: []string{"christmas", "xmas", "easter"},
		},
		{
			ID:       "aqeedah_shirk",
			Category: "aqeedah",
			Priority: PriorityHigh,
			Reason:   "Contains shirk-related expressions.",
			Patterns: []string{"worship", "pray to", "god of", "goddess"},
		},
		{
			ID:       "magic_sorcery",
			Category: "magic",
			Priority: PriorityHigh,
			Reason:   "References magic or sorcery.",
			Patterns: []string{"spell", "sorcery", "magic ritual", "witchcraft", "summon"},
		},
		{
			ID:       "romance_dating",
			Category: "relationships",
			Priority: PriorityMedium,
			Reason:   "References romantic relationship themes.",
			Patterns: []string{"boyfriend", "girlfriend", "date", "kiss", "romantic"},
		},
		{
			ID:       "violent_language",
			Category: "violence",
			Priority: PriorityMedium,
			Reason:   "Contains violent phrasing.",
			Patterns: []string{"kill", "murder", "stab", "blood", "beat up"},
		},
	}
}
