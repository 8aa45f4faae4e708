package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audioscribe/internal/config"
	"audioscribe/internal/testsupport"
	"audioscribe/internal/transcripts"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.Backend
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, items ...transcripts.Transcription) *cliTestEnv {
	t.Helper()

	backend := testsupport.NewBackend(t, items...)
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.APIBaseURLEnv, "")

	configPath := filepath.Join(base, "audioscribe.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		backend:    backend,
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.configPath, "")
}

func (e *cliTestEnv) audio(t *testing.T, names ...string) []string {
	t.Helper()
	return testsupport.WriteAudio(t, filepath.Join(e.baseDir, "audio"), names...)
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[api]\nbase_url = %q\n\n[paths]\nstate_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.API.BaseURL,
		cfg.Paths.StateDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func seedItems(n int) []transcripts.Transcription {
	items := make([]transcripts.Transcription, n)
	for i := range items {
		items[i] = transcripts.Transcription{
			Filename:      fmt.Sprintf("clip-%02d.mp3", i+1),
			Transcription: fmt.Sprintf("spoken words %d", i+1),
		}
	}
	return items
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
