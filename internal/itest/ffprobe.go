//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type audioStream struct {
	Codec      string
	SampleRate int
	Channels   int
}

func probeAudioStream(path string) (audioStream, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate,channels",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return audioStream{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}

	var s audioStream
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "codec_name":
			s.Codec = val
		case "sample_rate":
			if s.SampleRate, err = strconv.Atoi(val); err != nil {
				return audioStream{}, fmt.Errorf("parse sample rate %q: %w", val, err)
			}
		case "channels":
			if s.Channels, err = strconv.Atoi(val); err != nil {
				return audioStream{}, fmt.Errorf("parse channels %q: %w", val, err)
			}
		}
	}
	return s, nil
}

// makeSine writes a mono sine tone of the given length to path.
func makeSine(path string, seconds int) error {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:sample_rate=48000:duration=%d", seconds),
		path,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg fixture: %w\n%s", err, string(b))
	}
	return nil
}
