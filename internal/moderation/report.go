package moderation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// EngineName identifies this rule engine in analysis documents.
const EngineName = "local_rules"

// Analysis is the document written to the .analysis.json sidecar.
type Analysis struct {
	Engine        string        `json:"engine"`
	Flagged       []FlaggedItem `json:"flagged"`
	Summary       string        `json:"summary"`
	CreatedAt     string        `json:"createdAt"`
	VideoFileName string        `json:"videoFileName"`
}

// NewAnalysis wraps a result for persistence.
func NewAnalysis(result Result, videoFileName string, now time.Time) Analysis {
	flagged := result.Flagged
	if flagged == nil {
		flagged = []FlaggedItem{}
	}
	return Analysis{
		Engine:        EngineName,
		Flagged:       flagged,
		Summary:       result.Summary,
		CreatedAt:     now.UTC().Format(time.RFC3339),
		VideoFileName: videoFileName,
	}
}

// WriteAnalysis writes the analysis as compact JSON, replacing any previous
// file. Cue text is written verbatim, without HTML escaping.
func WriteAnalysis(path string, analysis Analysis) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(analysis); err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}
