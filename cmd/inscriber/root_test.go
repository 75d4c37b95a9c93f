package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "migrate", "apikey", "session"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("subcommand %s not registered", name)
		}
	}
}

func TestEnsureConfigLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "nodeInfo:\n  fqdn: inscriber.example.com\nserver:\n  postgresDsn: host=db\n  logLevel: warn\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := &commandContext{configFlag: &path}
	conf, err := ctx.ensureConfig()
	if err != nil {
		t.Fatalf("ensureConfig: %v", err)
	}
	if conf.NodeInfo.FQDN != "inscriber.example.com" {
		t.Fatalf("unexpected fqdn %q", conf.NodeInfo.FQDN)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := ctx.ensureConfig(); err != nil {
		t.Fatalf("second call should reuse loaded config: %v", err)
	}
}

func TestEnsureConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	ctx := &commandContext{configFlag: &path}
	if _, err := ctx.ensureConfig(); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
