package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/switchboard/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "sb dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestServe_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "-c", filepath.Join(t.TempDir(), "nope.yaml")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	if err := os.WriteFile(path, []byte("operator:\n  platform: irc\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "-c", path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestCreateAdapter(t *testing.T) {
	cfg := &config.Config{}
	cfg.Operator.Platform = "discord"
	cfg.Operator.Channel = "chan-1"
	cfg.Operator.Discord.BotToken = "token"
	if _, err := createAdapter(cfg); err != nil {
		t.Errorf("discord adapter: %v", err)
	}

	cfg = &config.Config{}
	cfg.Operator.Platform = "slack"
	cfg.Operator.Channel = "C1"
	cfg.Operator.Slack.BotToken = "xoxb-1"
	cfg.Operator.Slack.AppToken = "xapp-1"
	if _, err := createAdapter(cfg); err != nil {
		t.Errorf("slack adapter: %v", err)
	}

	cfg = &config.Config{}
	cfg.Operator.Platform = "irc"
	if _, err := createAdapter(cfg); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestExecute_ErrorExitCode(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"no-such-command"})

	if code := execute(cmd); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
