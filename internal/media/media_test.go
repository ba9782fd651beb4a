package media_test

import (
	"errors"
	"testing"

	"avid/internal/media"
	"avid/internal/services"
)

func TestNewFileDeterministicID(t *testing.T) {
	info := media.Info{DurationMS: 60000, Width: 1280, Height: 720, FPS: 25}
	first, err := media.NewFile("/videos/episode.mp4", info)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	second, err := media.NewFile("/videos/episode.mp4", info)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same path produced different IDs: %s vs %s", first.ID, second.ID)
	}
	if first.OriginalName != "episode.mp4" {
		t.Fatalf("original name = %q", first.OriginalName)
	}

	other, err := media.NewFile("/videos/other.mp4", info)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("distinct paths must produce distinct IDs")
	}
}

func TestNewFileValidation(t *testing.T) {
	if _, err := media.NewFile("", media.Info{DurationMS: 1000}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
	if _, err := media.NewFile("/a.mp4", media.Info{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero duration, got %v", err)
	}
}

func TestInfoClassification(t *testing.T) {
	video := media.Info{DurationMS: 1, Width: 1920, Height: 1080, SampleRate: 48000}
	if !video.IsVideo() || video.IsAudioOnly() {
		t.Fatal("video misclassified")
	}
	audio := media.Info{DurationMS: 1, SampleRate: 44100}
	if audio.IsVideo() || !audio.IsAudioOnly() {
		t.Fatal("audio misclassified")
	}
}
