package codec

import (
	"strconv"

	"github.com/forPelevin/audioconv/internal/types"
)

const MP3Encoder = "libmp3lame"

// PCMCodec maps a WAV bit depth to its little-endian PCM encoder.
// Unknown depths fall back to 16-bit.
func PCMCodec(bitDepth int) string {
	switch bitDepth {
	case 24:
		return "pcm_s24le"
	case 32:
		return "pcm_s32le"
	default:
		return "pcm_s16le"
	}
}

// Bitrate formats kbps as the engine expects, e.g. 320 -> "320k".
func Bitrate(kbps int) string {
	return strconv.Itoa(kbps) + "k"
}

// Args returns the output-side engine arguments for req: sample rate,
// channel count, container format and codec selection. Input and output
// paths are added by the engine adapter.
func Args(req types.ConversionRequest) []string {
	args := []string{
		"-ar", strconv.Itoa(req.SampleRate()),
		"-ac", strconv.Itoa(req.Channels()),
		"-f", string(req.Format),
	}
	switch req.Format {
	case types.FormatMP3:
		args = append(args,
			"-b:a", Bitrate(req.Mp3.Bitrate),
			"-acodec", MP3Encoder,
		)
	default:
		args = append(args, "-acodec", PCMCodec(req.Wav.BitDepth))
	}
	return args
}
