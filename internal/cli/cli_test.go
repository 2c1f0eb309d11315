package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"summary", "account", "tokens", "pools", "reserves", "stats", "transactions", "whales", "overview", "compare-prices", "run", "migrate", "show", "export", "simulate-alert", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
}

func TestAccountRequiresOneArg(t *testing.T) {
	if err := accountCmd.Args(accountCmd, nil); err == nil {
		t.Fatal("account 需要一个参数")
	}
	if err := accountCmd.Args(accountCmd, []string{"0.0.2"}); err != nil {
		t.Fatal(err)
	}
}

func TestVersionOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(buf.String(), "hederadefi dev") {
		t.Fatalf("unexpected version output %q", buf.String())
	}
}

func TestParseTimestamp(t *testing.T) {
	if ts, err := parseTimestamp("from", ""); err != nil || ts != nil {
		t.Fatalf("empty value: %v %v", ts, err)
	}
	ts, err := parseTimestamp("from", "2025-01-02")
	if err != nil || ts.Format(time.RFC3339) != "2025-01-02T00:00:00Z" {
		t.Fatalf("date only: %v %v", ts, err)
	}
	ts, err = parseTimestamp("to", "2025-01-02T10:00:00+02:00")
	if err != nil || ts.Hour() != 8 {
		t.Fatalf("rfc3339 should convert to UTC: %v %v", ts, err)
	}
	if _, err := parseTimestamp("to", "yesterday"); err == nil || !strings.Contains(err.Error(), "--to") {
		t.Fatalf("expected flag name in error, got %v", err)
	}
}
