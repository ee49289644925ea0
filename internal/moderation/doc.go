// Package moderation flags subtitle cues that match a rule catalog or a
// profanity lexicon.
//
// Rules match by case-insensitive substring containment; profanity matches
// whole words only. A request may replace the rule catalog entirely through
// its settings, and may extend the lexicon. Results are de-duplicated per
// (cue start, rule) and ordered by cue start, then by priority.
package moderation
