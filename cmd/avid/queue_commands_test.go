package main

import (
	"strings"
	"testing"
)

func TestQueueAddListAndHealth(t *testing.T) {
	isolateEnvironment(t)

	output, err := runCommand(t, "queue", "add", "/media/episode.mp4", "--srt", "/media/episode.srt")
	if err != nil {
		t.Fatalf("queue add failed: %v", err)
	}
	if !strings.Contains(output, "Queued item 1") {
		t.Fatalf("unexpected add output:\n%s", output)
	}

	if _, err := runCommand(t, "queue", "add", "/media/episode.mp4"); err == nil {
		t.Fatal("expected error for duplicate source")
	}

	output, err = runCommand(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list failed: %v", err)
	}
	if !strings.Contains(output, "/media/episode.mp4") || !strings.Contains(output, "pending") {
		t.Fatalf("unexpected list output:\n%s", output)
	}

	output, err = runCommand(t, "queue", "health")
	if err != nil {
		t.Fatalf("queue health failed: %v", err)
	}
	if !strings.Contains(output, "Total: 1") || !strings.Contains(output, "Pending: 1") {
		t.Fatalf("unexpected health output:\n%s", output)
	}
}

func TestQueueListEmpty(t *testing.T) {
	isolateEnvironment(t)
	output, err := runCommand(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list failed: %v", err)
	}
	if !strings.Contains(output, "Queue is empty") {
		t.Fatalf("unexpected output:\n%s", output)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	isolateEnvironment(t)
	if _, err := runCommand(t, "queue", "list", "--status", "imaginary"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueClearAndRetry(t *testing.T) {
	isolateEnvironment(t)

	if _, err := runCommand(t, "queue", "add", "/media/episode.mp4"); err != nil {
		t.Fatalf("queue add failed: %v", err)
	}

	output, err := runCommand(t, "queue", "retry")
	if err != nil {
		t.Fatalf("queue retry failed: %v", err)
	}
	if !strings.Contains(output, "Retried 0 items") {
		t.Fatalf("unexpected retry output:\n%s", output)
	}

	output, err = runCommand(t, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	if !strings.Contains(output, "Cleared 0 queue items") {
		t.Fatalf("pending item should survive default clear:\n%s", output)
	}

	if _, err := runCommand(t, "queue", "clear", "--completed", "--failed"); err == nil {
		t.Fatal("expected error for conflicting clear flags")
	}

	output, err = runCommand(t, "queue", "reset-stuck")
	if err != nil {
		t.Fatalf("queue reset-stuck failed: %v", err)
	}
	if !strings.Contains(output, "Reset 0 items") {
		t.Fatalf("unexpected reset output:\n%s", output)
	}
}
