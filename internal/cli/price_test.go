package cli

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPriceCommandQuotesDurations(t *testing.T) {
	out, err := runCLI(t, "price", "25", "45", "90000")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	for _, want := range []string{"Under 30 seconds", "30 seconds to 1 minute", "Over 20 minutes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus three rows, got:\n%s", out)
	}
	if fields := strings.Fields(lines[2]); fields[0] != "45" || fields[1] != "10" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestPriceCommandListsTable(t *testing.T) {
	out, err := runCLI(t, "price")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !strings.Contains(out, "0-30") || !strings.Contains(out, "1201-") {
		t.Fatalf("expected tier ranges in output:\n%s", out)
	}
}

func TestPriceCommandRejectsGarbage(t *testing.T) {
	if _, err := runCLI(t, "price", "soon"); err == nil {
		t.Fatalf("expected error for non-numeric seconds")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir() + "/missing.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Economy.StartingCoins != 100 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
