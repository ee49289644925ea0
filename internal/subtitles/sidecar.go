package subtitles

import (
	"path/filepath"
	"strings"

	"aliyaal/internal/fileutil"
)

const (
	srtExt      = ".srt"
	analysisExt = ".analysis.json"
)

// Sidecars names the files stored next to a video.
type Sidecars struct {
	Subtitle string
	Analysis string
}

// TranscriptPath returns the SRT sidecar a transcription of video produces.
func TranscriptPath(video string) string {
	return fileutil.ReplaceExt(video, srtExt)
}

// ResolveSidecars maps a flag input to its subtitle and analysis sidecars. An
// input that is already an .srt file is used directly as the subtitle.
func ResolveSidecars(input string) Sidecars {
	subtitle := fileutil.ReplaceExt(input, srtExt)
	if strings.EqualFold(filepath.Ext(input), srtExt) {
		subtitle = input
	}
	return Sidecars{Subtitle: subtitle, Analysis: fileutil.ReplaceExt(input, analysisExt)}
}
