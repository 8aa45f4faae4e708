package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"audioscribe/internal/upload"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Server", statusError, "http://localhost:5000", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Server:", "[ERROR] http://localhost:5000")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Server", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestUploadStatusKind(t *testing.T) {
	cases := map[upload.Status]statusKind{
		upload.StatusPending: statusInfo,
		upload.StatusSuccess: statusOK,
		upload.StatusFailed:  statusError,
	}
	for status, want := range cases {
		if got := uploadStatusKind(status); got != want {
			t.Fatalf("uploadStatusKind(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestRenderQueueShowsReasons(t *testing.T) {
	var buf bytes.Buffer
	renderQueue(&buf, []upload.Entry{
		{File: upload.NewBytesFile("a.mp3", make([]byte, 2048)), Status: upload.StatusSuccess},
		{File: upload.NewBytesFile("b.wav", nil), Status: upload.StatusFailed, Reason: "File type is not supported"},
	})
	out := buf.String()
	for _, want := range []string{"a.mp3", "2.0 kB", "Success", "b.wav", "Failed", "File type is not supported"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in queue output:\n%s", want, out)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
