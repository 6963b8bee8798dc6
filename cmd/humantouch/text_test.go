package main

import (
	"errors"
	"strings"
	"testing"
)

func TestTextCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		args       []string
		wantOut    string
		wantErrOut string
	}{
		{
			name:    "plain text",
			input:   "It’s done \u2014 finally…",
			wantOut: "It's done - finally...",
		},
		{
			name:    "html keeps exclusion zones",
			input:   "<p>a\u2014b</p><code>a\u2014b</code>",
			args:    []string{"--html"},
			wantOut: "<p>a-b</p><code>a\u2014b</code>",
		},
		{
			name:    "plain text ignores markup",
			input:   "<code>a\u2014b</code>",
			wantOut: "<code>a-b</code>",
		},
		{
			name:    "safe tier only by default",
			input:   "€5",
			wantOut: "€5",
		},
		{
			name:    "aggressive tier",
			input:   "€5",
			args:    []string{"-a"},
			wantOut: "EUR5",
		},
		{
			name:    "disabled rule",
			input:   "wait…",
			args:    []string{"--disable-rule", "ellipsis"},
			wantOut: "wait…",
		},
		{
			name:       "hazards go to stderr",
			input:      "a\u200Bb",
			wantOut:    "ab",
			wantErrOut: "hazard: invisible_bidi: 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"text", "--config", writeTestConfig(t, "")}, tt.args...)
			out, errOut, err := executeCmd(t, tt.input, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.wantOut {
				t.Errorf("expected %q, got %q", tt.wantOut, out)
			}
			if tt.wantErrOut != "" && !strings.Contains(errOut, tt.wantErrOut) {
				t.Errorf("expected stderr to contain %q, got %q", tt.wantErrOut, errOut)
			}
		})
	}
}

func TestTextCmdFailOnHazards(t *testing.T) {
	t.Parallel()

	t.Run("fails on invisible characters", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeCmd(t, "a\u202Eb", "text", "--fail-on-hazards", "--config", writeTestConfig(t, ""))
		if !errors.Is(err, errRunFailed) {
			t.Fatalf("expected errRunFailed, got %v", err)
		}
		if out != "ab" {
			t.Errorf("expected output before failing, got %q", out)
		}
	})

	t.Run("formatting hazards do not fail", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeCmd(t, "a&nbsp;&nbsp;b", "text", "--fail-on-hazards", "--config", writeTestConfig(t, ""))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("config file enables the check", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeCmd(t, "a\u200Bb", "text", "--config", writeTestConfig(t, "fail_on_hazards: true\n"))
		if !errors.Is(err, errRunFailed) {
			t.Errorf("expected errRunFailed, got %v", err)
		}
	})
}

func TestTextCmdInvalidInput(t *testing.T) {
	t.Parallel()

	_, _, err := executeCmd(t, "\xff\xfe", "text", "--config", writeTestConfig(t, ""))
	if err == nil || !strings.Contains(err.Error(), "normalize input") {
		t.Errorf("expected invalid input error, got %v", err)
	}
}
