package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/xorcism-go/internal/config"
	"github.com/xorcism-go/internal/obfuscate"
)

func TestRunPipeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	mid := filepath.Join(dir, "mid")
	out := filepath.Join(dir, "out")

	data := []byte("attack at dawn")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runPipe("hex:5f", in, mid, 0, "false"); err != nil {
		t.Fatalf("encode pass error = %v", err)
	}
	if err := runPipe("hex:5f", mid, out, 0, "false"); err != nil {
		t.Fatalf("decode pass error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip = %q, want %q", got, data)
	}
}

func TestRunPipeArmor(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")

	data := []byte("armored payload")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runPipe("secret", in, out, 0, "true"); err != nil {
		t.Fatalf("runPipe() error = %v", err)
	}

	armored, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(armored))
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}

	want, err := obfuscate.Munge([]byte("secret"), data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, want) {
		t.Error("armored output does not decode to the transformed bytes")
	}
}

func TestRunPipeBadArmorValue(t *testing.T) {
	// A typo must be a usage error, not a silent armor=false.
	if err := runPipe("secret", "", "", 0, "ture"); err == nil {
		t.Fatal("runPipe() accepted an invalid -a value")
	}
}

func TestSetupLoggingFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xorcism.log")

	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Log.Output = path
	setupLogging(cfg)

	log.Info().Msg("log output wired")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(b), "log output wired") {
		t.Errorf("log file contents = %q", b)
	}
}
