package config

const (
	defaultConfigPath = "~/.config/aliyaal/config.toml"
	projectConfigName = "aliyaal.toml"
	defaultLogDir     = "~/.local/state/aliyaal/logs"

	defaultFFmpegBinary = "ffmpeg"
	defaultDemucsBinary = "demucs"
	defaultYapBinary    = "yap"

	defaultSeparationModel = "htdemucs"
	defaultSeparationStem  = "vocals"
	defaultSeparationJobs  = 2
	defaultVocalsExt       = "wav"

	defaultAudioCodec   = "aac"
	defaultAudioBitrate = "192k"

	defaultCutOutputSubdir = "video_cleaned"
	defaultCutVideoCodec   = "libx264"
	defaultCutPreset       = "veryfast"
	defaultCutCRF          = 18

	defaultMaxLineBytes = 4 << 20

	// Environment overrides for tool binaries.
	envFFmpegPath = "AIYAAL_FFMPEG_PATH"
	envDemucsPath = "AIYAAL_DEMUCS_PATH"
	envYapPath    = "AIYAAL_YAP_PATH"
)

// Compute modes accepted by separation.default_compute_mode and requests.
const (
	ComputeAuto = "auto"
	ComputeCPU  = "cpu"
	ComputeMPS  = "mps"
	ComputeCUDA = "cuda"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Tools: Tools{
			FFmpeg: defaultFFmpegBinary,
			Demucs: defaultDemucsBinary,
			Yap:    defaultYapBinary,
		},
		Separation: Separation{
			Model:              defaultSeparationModel,
			Stem:               defaultSeparationStem,
			Jobs:               defaultSeparationJobs,
			VocalsExt:          defaultVocalsExt,
			DefaultComputeMode: ComputeAuto,
		},
		Remux: Remux{
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Cut: Cut{
			OutputSubdir: defaultCutOutputSubdir,
			VideoCodec:   defaultCutVideoCodec,
			Preset:       defaultCutPreset,
			CRF:          defaultCutCRF,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Worker: Worker{
			SingleInstance: true,
			MaxLineBytes:   defaultMaxLineBytes,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
			File:   true,
		},
	}
}
