package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	winlog "github.com/werbes/evtlist"
)

var fixedNow = time.Date(2026, 10, 15, 14, 0, 0, 0, time.Local)

// stubBackend replaces the event log backend for one test and records
// whether a query was opened.
func stubBackend(t *testing.T, channels map[string][]*winlog.Record) *bool {
	t.Helper()
	opened := false
	src := &winlog.MemorySource{Channels: channels, Now: func() time.Time { return fixedNow }}

	prevOpen, prevNow := openSource, now
	openSource = func(name string, _ *zap.Logger) (winlog.Source, error) {
		opened = true
		return src, nil
	}
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { openSource, now = prevOpen, prevNow })
	return &opened
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	if args == nil {
		// nil makes cobra fall back to os.Args.
		args = []string{}
	}
	cmd.SetArgs(args)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHelpWithoutToken(t *testing.T) {
	for _, args := range [][]string{nil, {"bogus"}, {""}} {
		opened := stubBackend(t, nil)
		out, err := execute(t, args...)
		if err != nil {
			t.Fatalf("args %q: %v", args, err)
		}
		if !strings.Contains(out, "| ALLOWED PARAMETERS:") || !strings.Contains(out, "within the last 5 hours") {
			t.Errorf("args %q: help not printed:\n%s", args, out)
		}
		if *opened {
			t.Errorf("args %q: a query was opened", args)
		}
	}
}

func TestKernelListing(t *testing.T) {
	opened := stubBackend(t, map[string][]*winlog.Record{
		"System": {
			{EventID: 41, Provider: "Microsoft-Windows-Kernel-Power", TimeCreated: fixedNow.Add(-time.Hour), LevelName: "Critical", Message: "The system has rebooted without cleanly shutting down first."},
			{EventID: 7036, Provider: "Service Control Manager", TimeCreated: fixedNow.Add(-time.Hour), LevelName: "Information"},
			{EventID: 42, Provider: "Microsoft-Windows-Kernel-Power", TimeCreated: fixedNow.Add(-6 * time.Hour), LevelName: "Information"},
		},
	})

	out, err := execute(t, "kernel")
	if err != nil {
		t.Fatal(err)
	}
	if !*opened {
		t.Fatal("no query opened")
	}
	if !strings.HasPrefix(out, "SYSTEM - KERNEL POWER EVENTS\n\nEvent ID ") {
		t.Errorf("banner and header missing:\n%s", out)
	}
	if !strings.Contains(out, "41           Critical ") {
		t.Errorf("kernel power row missing:\n%s", out)
	}
	if strings.Contains(out, "Service Control Manager") || strings.Contains(out, "\n42 ") {
		t.Errorf("unexpected rows:\n%s", out)
	}
}

func TestWindowFlag(t *testing.T) {
	stubBackend(t, map[string][]*winlog.Record{
		"System": {
			{EventID: 1, Provider: "a", TimeCreated: fixedNow.Add(-30 * time.Minute)},
			{EventID: 2, Provider: "b", TimeCreated: fixedNow.Add(-2 * time.Hour)},
		},
	})

	out, err := execute(t, "system", "--window", "1h")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "\n"); got != 5 {
		t.Errorf("printed %d lines; want banner, blank, header, separator and one row:\n%s", got, out)
	}

	if _, err := execute(t, "system", "--window=-1h"); err == nil {
		t.Error("negative window accepted")
	}
}

func TestBackendErrorIsFatal(t *testing.T) {
	stubBackend(t, nil)
	openSource = func(string, *zap.Logger) (winlog.Source, error) {
		return nil, winlog.ErrUnsupportedPlatform
	}

	_, err := execute(t, "logon")
	if !errors.Is(err, winlog.ErrUnsupportedPlatform) {
		t.Errorf("error = %v; want ErrUnsupportedPlatform", err)
	}
}

func TestMissingChannelIsFatal(t *testing.T) {
	stubBackend(t, map[string][]*winlog.Record{})
	if _, err := execute(t, "logon"); err == nil {
		t.Error("query against a missing channel succeeded")
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := []byte(`window: 2h
presets:
  - name: apps
    channel: Application
    banner: APPLICATION EVENTS
    description: Application
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVTLIST_CONFIG", path)
	stubBackend(t, map[string][]*winlog.Record{
		"Application": {{EventID: 1000, Provider: "Application Error", TimeCreated: fixedNow}},
	})

	out, err := execute(t, "apps")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "APPLICATION EVENTS\n\n") || !strings.Contains(out, "Application Error") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "| From Application: Application events") || !strings.Contains(out, "last 2 hours") {
		t.Errorf("help does not reflect the config:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	stubBackend(t, nil)
	if _, err := execute(t, "system", "--log-level", "chatty"); err == nil {
		t.Error("invalid log level accepted")
	}
}
