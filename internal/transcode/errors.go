package transcode

import (
	"errors"
	"fmt"

	"github.com/forPelevin/audioconv/internal/types"
)

var (
	ErrEngineUnavailable = errors.New("ffmpeg is not available, install ffmpeg to convert audio")
	ErrInvalidRequest    = errors.New("invalid conversion request")
	ErrInputNotFound     = errors.New("input file does not exist")
	ErrJobInProgress     = errors.New("a conversion to the same output is already running")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrCancelled         = errors.New("conversion was cancelled by user")
)

// ConversionError carries the engine's failure message. It matches
// ErrConversionFailed with errors.Is.
type ConversionError struct {
	Format types.Format
	Detail string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s conversion failed: %s", e.Format.Label(), e.Detail)
}

func (e *ConversionError) Unwrap() error { return ErrConversionFailed }
