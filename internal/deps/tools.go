package deps

import "aliyaal/internal/config"

// ToolRequirements lists the media binaries the pipelines invoke, using the
// configured commands.
func ToolRequirements(tools config.Tools) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     tools.FFmpeg,
			Description: "Required for remux and cut",
		},
		{
			Name:        "Demucs",
			Command:     tools.Demucs,
			Description: "Required for vocal separation",
		},
		{
			Name:        "yap",
			Command:     tools.Yap,
			Description: "Required for transcription",
		},
		{
			Name:        "nvidia-smi",
			Command:     "nvidia-smi",
			Description: "Detects CUDA when compute mode is auto",
			Optional:    true,
		},
	}
}
