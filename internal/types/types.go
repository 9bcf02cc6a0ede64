package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 192000

	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultBitDepth   = 16
	DefaultBitrate    = 320
)

var (
	ErrUnknownFormat     = errors.New("unknown format")
	ErrInvalidSampleRate = errors.New("sample rate must be between 8000 and 192000 Hz")
	ErrInvalidChannels   = errors.New("channels must be 1 or 2")
	ErrInvalidBitrate    = errors.New("bitrate must be > 0")
	ErrEmptyInput        = errors.New("input path is empty")
)

// ParseFormat accepts "wav" or "mp3" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWAV, FormatMP3:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (must be wav or mp3)", ErrUnknownFormat, s)
	}
}

// Label is the upper-case name used in user-facing messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

type WavOptions struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	BitDepth   int `json:"bitDepth"`
}

type Mp3Options struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	Bitrate    int `json:"bitrate"`
}

func DefaultWavOptions() WavOptions {
	return WavOptions{SampleRate: DefaultSampleRate, Channels: DefaultChannels, BitDepth: DefaultBitDepth}
}

func DefaultMp3Options() Mp3Options {
	return Mp3Options{SampleRate: DefaultSampleRate, Channels: DefaultChannels, Bitrate: DefaultBitrate}
}

// ConversionRequest is one conversion of InputPath to Format. Only the
// options block matching Format is read.
type ConversionRequest struct {
	InputPath string     `json:"input"`
	Format    Format     `json:"format"`
	Wav       WavOptions `json:"wav"`
	Mp3       Mp3Options `json:"mp3"`
}

// MarshalJSON writes only the options block matching Format.
func (r ConversionRequest) MarshalJSON() ([]byte, error) {
	out := struct {
		InputPath string      `json:"input"`
		Format    Format      `json:"format"`
		Wav       *WavOptions `json:"wav,omitempty"`
		Mp3       *Mp3Options `json:"mp3,omitempty"`
	}{InputPath: r.InputPath, Format: r.Format}
	switch r.Format {
	case FormatWAV:
		out.Wav = &r.Wav
	case FormatMP3:
		out.Mp3 = &r.Mp3
	}
	return json.Marshal(out)
}

func NewWavRequest(input string, o WavOptions) ConversionRequest {
	return ConversionRequest{InputPath: input, Format: FormatWAV, Wav: o}
}

func NewMp3Request(input string, o Mp3Options) ConversionRequest {
	return ConversionRequest{InputPath: input, Format: FormatMP3, Mp3: o}
}

// WithDefaults fills zero option fields of the active block with the
// defaults. Explicit values, valid or not, are left alone.
func (r ConversionRequest) WithDefaults() ConversionRequest {
	switch r.Format {
	case FormatWAV:
		d := DefaultWavOptions()
		if r.Wav.SampleRate == 0 {
			r.Wav.SampleRate = d.SampleRate
		}
		if r.Wav.Channels == 0 {
			r.Wav.Channels = d.Channels
		}
		if r.Wav.BitDepth == 0 {
			r.Wav.BitDepth = d.BitDepth
		}
	case FormatMP3:
		d := DefaultMp3Options()
		if r.Mp3.SampleRate == 0 {
			r.Mp3.SampleRate = d.SampleRate
		}
		if r.Mp3.Channels == 0 {
			r.Mp3.Channels = d.Channels
		}
		if r.Mp3.Bitrate == 0 {
			r.Mp3.Bitrate = d.Bitrate
		}
	}
	return r
}

// SampleRate returns the rate of the active options block.
func (r ConversionRequest) SampleRate() int {
	if r.Format == FormatMP3 {
		return r.Mp3.SampleRate
	}
	return r.Wav.SampleRate
}

// Channels returns the channel count of the active options block.
func (r ConversionRequest) Channels() int {
	if r.Format == FormatMP3 {
		return r.Mp3.Channels
	}
	return r.Wav.Channels
}

// Validate checks the request parameters. Bit depth is deliberately not
// checked: unknown depths fall back to 16-bit PCM.
func (r ConversionRequest) Validate() error {
	if r.InputPath == "" {
		return ErrEmptyInput
	}
	if _, err := ParseFormat(string(r.Format)); err != nil {
		return err
	}
	if sr := r.SampleRate(); sr < MinSampleRate || sr > MaxSampleRate {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sr)
	}
	if ch := r.Channels(); ch != 1 && ch != 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidChannels, ch)
	}
	if r.Format == FormatMP3 && r.Mp3.Bitrate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBitrate, r.Mp3.Bitrate)
	}
	return nil
}

type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Progress is one report delivered to the caller. Percent is absolute;
// Increment is the change since the previous report.
type Progress struct {
	Percent   int    `json:"percent"`
	Increment int    `json:"increment"`
	Message   string `json:"message"`
}

// JobSnapshot is a point-in-time view of a job.
type JobSnapshot struct {
	ID         string            `json:"id"`
	Request    ConversionRequest `json:"request"`
	OutputPath string            `json:"outputPath"`
	State      JobState          `json:"state"`
	Percent    int               `json:"percent"`
	Error      string            `json:"error,omitempty"`
}
