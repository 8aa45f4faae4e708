package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audioscribe/internal/app"
	"audioscribe/internal/search"
	"audioscribe/internal/transcripts"
)

func TestCLIHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, stdout, "[OK] "+env.backend.URL())

	env.backend.SetHealthStatus(http.StatusInternalServerError)
	stdout, _, err = env.run(t, "health")
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, app.BannerUnhealthy)
	requireContains(t, stdout, "[ERROR]")
}

func TestCLIListPaginates(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(12)...)

	stdout, _, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, stdout, "clip-10.mp3")
	requireNotContains(t, stdout, "clip-11.mp3")
	requireContains(t, stdout, "Page 1 of 2 (12 transcriptions)")

	stdout, _, err = env.run(t, "list", "--page", "2")
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	requireContains(t, stdout, "clip-12.mp3")
	requireNotContains(t, stdout, "clip-01.mp3")

	if _, _, err := env.run(t, "list", "--page", "3"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestCLIListJSON(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(3)...)
	env.backend.SetHealthStatus(http.StatusServiceUnavailable)

	stdout, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var page pageJSON
	if err := json.Unmarshal([]byte(stdout), &page); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if page.Total != 3 || page.TotalPages != 1 || len(page.Items) != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Banner != app.BannerUnhealthy {
		t.Fatalf("expected banner in JSON, got %q", page.Banner)
	}
}

func TestCLIListJSONKeepsTranscriptText(t *testing.T) {
	env := setupCLITestEnv(t, transcripts.Transcription{Filename: "q&a.mp3", Transcription: "<intro> & outro"})

	stdout, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	requireContains(t, stdout, `"q&a.mp3"`)
	requireContains(t, stdout, `"<intro> & outro"`)
}

func TestCLIListFetchFailure(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(3)...)
	env.backend.SetListStatus(http.StatusInternalServerError)

	stdout, _, err := env.run(t, "list")
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, app.MessageFetchFailed)
	requireNotContains(t, stdout, app.BannerUnhealthy)
}

func TestCLISearch(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(12)...)

	stdout, _, err := env.run(t, "search", "CLIP-1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, stdout, "clip-10.mp3")
	requireContains(t, stdout, "Page 1 of 1 (3 transcriptions)")

	stdout, _, err = env.run(t, "search", "nothing-here")
	if err != nil {
		t.Fatalf("empty search: %v", err)
	}
	requireContains(t, stdout, search.MessageNoResults)

	if _, _, err := env.run(t, "search", "   "); !errors.Is(err, search.ErrEmptyQuery) {
		t.Fatalf("expected empty query error, got %v", err)
	}

	env.backend.SetSearchStatus(http.StatusInternalServerError)
	stdout, _, err = env.run(t, "search", "clip")
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, search.MessageFailed)
}

func TestCLIUploadAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(1)...)
	paths := env.audio(t, "interview.mp3", "memo.wav")

	stdout, _, err := env.run(t, append([]string{"upload"}, paths...)...)
	if err != nil {
		t.Fatalf("upload: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "interview.mp3")
	requireContains(t, stdout, "Success")
	if got := len(env.backend.Items()); got != 3 {
		t.Fatalf("expected 3 stored transcriptions, got %d", got)
	}

	stdout, _, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "succeeded")
	requireContains(t, stdout, "memo.wav")

	stdout, _, err = env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var batches []historyBatchJSON
	if err := json.Unmarshal([]byte(stdout), &batches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Files) != 2 || batches[0].Files[0].Blake3 == "" {
		t.Fatalf("unexpected history: %+v", batches)
	}
}

func TestCLIUploadRejectsTooManyFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	paths := env.audio(t, "a.mp3", "b.mp3", "c.mp3")

	stdout, _, err := env.run(t, append([]string{"upload"}, paths...)...)
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, "Only 2 files are allowed.")
	if env.backend.TranscribeCalls() != 0 {
		t.Fatal("expected no upload request")
	}
}

func TestCLIUploadRejectsDuplicate(t *testing.T) {
	env := setupCLITestEnv(t, transcripts.Transcription{Filename: "seen.mp3"})
	paths := env.audio(t, "seen.mp3")

	stdout, _, err := env.run(t, append([]string{"upload"}, paths...)...)
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, "At least one file has already been processed before.")
	requireContains(t, stdout, "No valid files selected.")
	if env.backend.TranscribeCalls() != 0 {
		t.Fatal("expected no upload request")
	}
}

func TestCLIUploadJSONReportsServerFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.FailFile("bad.wav", "Something went wrong")
	paths := env.audio(t, "good.mp3", "bad.wav")

	stdout, _, err := env.run(t, append([]string{"upload", "--json"}, paths...)...)
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit for partial batch, got %v", err)
	}
	var report uploadJSON
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	for _, f := range report.Files {
		if f.Filename == "bad.wav" && (f.Status != "Failed" || f.Reason != "Something went wrong") {
			t.Fatalf("unexpected bad.wav entry: %+v", f)
		}
	}
}

func TestCLIUploadTransportFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.SetTranscribeStatus(http.StatusBadGateway)
	paths := env.audio(t, "a.mp3")

	stdout, _, err := env.run(t, append([]string{"upload"}, paths...)...)
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("expected failure exit, got %v", err)
	}
	requireContains(t, stdout, "Error uploading files")
	requireContains(t, stdout, "Failed")
}

func TestCLIUploadMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "upload", filepath.Join(env.baseDir, "missing.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCLISession(t *testing.T) {
	env := setupCLITestEnv(t, seedItems(11)...)
	env.backend.SetHealthStatus(http.StatusInternalServerError)
	paths := env.audio(t, "fresh.mp3")

	script := strings.Join([]string{
		"next",
		"next",
		"search clip-0",
		"results 1",
		"stage " + paths[0],
		"queue",
		"upload",
		"queue",
		"list",
		"bogus",
		"quit",
	}, "\n") + "\n"

	stdout, _, err := runCLI(t, []string{"session"}, env.configPath, script)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	requireContains(t, stdout, "Page 2 of 2 (11 transcriptions)")
	requireContains(t, stdout, `Results for "clip-0"`)
	requireContains(t, stdout, "Already on page 2 of 2")
	requireContains(t, stdout, "1 file(s) staged")
	requireContains(t, stdout, "1 file(s) waiting to upload")
	requireContains(t, stdout, "1 succeeded, 0 failed")
	requireContains(t, stdout, "Page 1 of 2 (12 transcriptions)")
	requireContains(t, stdout, `Unknown command "bogus"`)
	if n := strings.Count(stdout, app.BannerUnhealthy); n < 5 {
		t.Fatalf("expected banner above every view, saw it %d times", n)
	}
}

func TestCLIConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected refusal to overwrite")
	}

	stdout, _, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, env.backend.URL())
}

func TestCLIConfigEnvOverride(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("AUDIOSCRIBE_API_BASE_URL", "http://transcriber.internal:9000/")

	stdout, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "http://transcriber.internal:9000")
}

func TestCLINotifyTestWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := env.run(t, "notify", "test")
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, stdout, "Notifications are disabled")
}
