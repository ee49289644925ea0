package moderation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"aliyaal/internal/subtitles"
)

// FlaggedItem is one cue that matched a rule or the profanity lexicon.
type FlaggedItem struct {
	StartTime float64  `json:"startTime"`
	EndTime   float64  `json:"endTime"`
	Text      string   `json:"text"`
	Reason    string   `json:"reason"`
	Priority  Priority `json:"priority"`
	Category  string   `json:"category"`
	RuleID    string   `json:"ruleId"`
}

// Result is the outcome of analysing one subtitle file.
type Result struct {
	Flagged []FlaggedItem
	Summary string
}

// Engine holds the default catalog and profanity lexicon. It is safe for
// concurrent use; Analyze does not mutate it.
type Engine struct {
	defaults []Rule
	lexicon  lexicon
}

// NewEngine builds an engine from the built-in catalog and lexicon.
func NewEngine() *Engine {
	return &Engine{defaults: DefaultRules(), lexicon: newLexicon()}
}

// NewEngineWithCatalog builds an engine whose defaults come from catalog. An
// empty rule list keeps the built-in rules; catalog words extend the lexicon.
func NewEngineWithCatalog(catalog Catalog) *Engine {
	e := &Engine{defaults: DefaultRules(), lexicon: newLexicon(catalog.ProfanityWords)}
	if len(catalog.Rules) > 0 {
		e.defaults = append([]Rule(nil), catalog.Rules...)
	}
	return e
}

// Rules returns a copy of the engine's default catalog.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.defaults...)
}

type dedupKey struct {
	startMillis   int64
	discriminator string
}

// Analyze flags entries against the active catalog (settings.Rules when
// present, otherwise the defaults) and the profanity lexicon.
func (e *Engine) Analyze(entries []subtitles.Entry, settings Settings) Result {
	rules := e.defaults
	if len(settings.Rules) > 0 {
		rules = settings.Rules
	}
	extra := make(map[string]struct{}, len(settings.ProfanityWords))
	for _, w := range settings.ProfanityWords {
		extra[w] = struct{}{}
	}

	lower := cases.Lower(language.Und)
	seen := map[dedupKey]struct{}{}
	flagged := make([]FlaggedItem, 0)
	add := func(entry subtitles.Entry, discriminator string, item FlaggedItem) {
		key := dedupKey{startMillis: int64(math.Round(entry.Start * 1000)), discriminator: discriminator}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		flagged = append(flagged, item)
	}

	for _, entry := range entries {
		folded := lower.String(norm.NFC.String(entry.Text))

		if e.lexicon.contains(folded, extra) {
			add(entry, profanityRuleID, FlaggedItem{
				StartTime: entry.Start,
				EndTime:   entry.End,
				Text:      entry.Text,
				Reason:    profanityReason,
				Priority:  PriorityMedium,
				Category:  profanityCategory,
				RuleID:    profanityRuleID,
			})
		}

		for _, rule := range rules {
			if !matchesAny(folded, rule.Patterns) {
				continue
			}
			add(entry, rule.ID, FlaggedItem{
				StartTime: entry.Start,
				EndTime:   entry.End,
				Text:      entry.Text,
				Reason:    rule.Reason,
				Priority:  rule.Priority,
				Category:  rule.Category,
				RuleID:    rule.ID,
			})
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].StartTime != flagged[j].StartTime {
			return flagged[i].StartTime < flagged[j].StartTime
		}
		return flagged[i].Priority.Rank() > flagged[j].Priority.Rank()
	})
	return Result{Flagged: flagged, Summary: Summarize(flagged)}
}

func matchesAny(folded string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// Summarize renders the one-line report stored with an analysis.
func Summarize(items []FlaggedItem) string {
	if len(items) == 0 {
		return "No concerning content detected."
	}
	counts := map[Priority]int{}
	for _, item := range items {
		counts[item.Priority]++
	}
	return fmt.Sprintf("Flagged %d subtitle item(s). high=%d, medium=%d, low=%d.",
		len(items), counts[PriorityHigh], counts[PriorityMedium], counts[PriorityLow])
}
