// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid json", cfg: Config{Level: "info", Format: "json"}, wantErr: false},
		{name: "valid console", cfg: Config{Level: "debug", Format: "console"}, wantErr: false},
		{name: "empty format defaults to json", cfg: Config{Level: "warn"}, wantErr: false},
		{name: "bad level", cfg: Config{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
		})
	}

	// Restore defaults for other tests in the package.
	if err := Init(DefaultConfig()); err != nil {
		t.Fatalf("restoring default config: %v", err)
	}
}

func TestStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info().Str("platform", "tiktok").Int("items", 3).Msg("batch normalized")

	out := buf.String()
	for _, want := range []string{`"platform":"tiktok"`, `"items":3`, `"batch normalized"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}

	if err := Init(DefaultConfig()); err != nil {
		t.Fatalf("restoring default config: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Debug().Msg("should be filtered")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("debug message leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %s", out)
	}

	if err := Init(DefaultConfig()); err != nil {
		t.Fatalf("restoring default config: %v", err)
	}
}

func TestEventHelpersCarryLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "trace", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Trace().Msg("t")
	Debug().Msg("d")
	Info().Msg("i")
	Warn().Msg("w")
	Error().Msg("e")

	out := buf.String()
	for _, want := range []string{
		`"level":"trace"`, `"level":"debug"`, `"level":"info"`,
		`"level":"warn"`, `"level":"error"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}

	if err := Init(DefaultConfig()); err != nil {
		t.Fatalf("restoring default config: %v", err)
	}
}
