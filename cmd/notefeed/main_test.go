package main

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"notefeed/internal/viewer"
)

func TestViewErrorStatusStaysOffHandoffCodes(t *testing.T) {
	err := viewError(errors.New("store unreadable"))
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("view error %v carries no exit code", err)
	}
	switch coder.ExitCode() {
	case viewer.ExitNormal, viewer.ExitOpenBrowser, viewer.ExitCreateNote:
		t.Errorf("view error exit code %d collides with the handoff protocol", coder.ExitCode())
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := truncate(long, 160)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune: %q", got)
	}
	if want := strings.Repeat("é", 160) + "..."; got != want {
		t.Errorf("truncate = %q, want %q", got, want)
	}
	if got := truncate("short", 160); got != "short" {
		t.Errorf("truncate(%q) = %q, want unchanged", "short", got)
	}
}
