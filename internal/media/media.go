// Package media models physical source files and the probe metadata the
// pipeline needs from them.
package media

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"avid/internal/services"
)

// Info is the probe summary for one media file. Width/Height/FPS are zero for
// audio-only sources; SampleRate is zero when no audio stream exists.
type Info struct {
	DurationMS int64   `json:"duration_ms"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
}

// IsVideo reports whether the source carries a picture stream.
func (i Info) IsVideo() bool {
	return i.Width > 0 && i.Height > 0
}

// IsAudioOnly reports whether the source is audio without picture.
func (i Info) IsAudioOnly() bool {
	return !i.IsVideo() && i.SampleRate > 0
}

// File is one physical source file registered with a project. The ID is
// derived from the absolute path so re-importing the same file yields the
// same identity.
type File struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	Info         Info   `json:"info"`
}

// DeriveID produces the stable identity for an absolute path.
func DeriveID(absPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(absPath)).String()
}

// NewFile registers a source file under its absolute path.
func NewFile(path string, info Info) (File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return File{}, services.Wrap(services.ErrValidation, "media", "new file", "empty path", nil)
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return File{}, services.Wrap(services.ErrValidation, "media", "new file", "resolve path "+trimmed, err)
	}
	if info.DurationMS <= 0 {
		return File{}, services.Wrap(services.ErrValidation, "media", "new file", "duration must be positive", nil)
	}
	return File{
		ID:           DeriveID(abs),
		Path:         abs,
		OriginalName: filepath.Base(abs),
		Info:         info,
	}, nil
}
