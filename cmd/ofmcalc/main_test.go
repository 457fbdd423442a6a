package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	schedulesFile = "../../testdata/examples/rate_schedules.yaml"
	fundingFile   = "../../testdata/examples/fundings.yaml"
)

// run executes a fresh command tree and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := rootCmd

	if cmd == nil {
		t.Fatal("Expected root command to be created")
	}

	if cmd.Use != "ofmcalc" {
		t.Errorf("Expected root command use to be 'ofmcalc', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Expected root command to have a short description")
	}

	if cmd.Long == "" {
		t.Error("Expected root command to have a long description")
	}
}

func TestRootCommand_Execute(t *testing.T) {
	out, _, err := run(t)
	if err != nil {
		t.Errorf("Expected no error for root command execution, got %v", err)
	}
	if out == "" {
		t.Error("Expected root command to show help/usage")
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := run(t, "--help")
	if err != nil {
		t.Errorf("Expected no error for help command, got %v", err)
	}
	if !strings.Contains(out, "calculate") {
		t.Error("Expected help text to list subcommands")
	}
}

func TestCommandSubcommands(t *testing.T) {
	expectedCommands := []string{"calculate", "allocate", "validate", "import", "history", "compare", "version"}

	cmd := newRootCmd()
	for _, name := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected command %s to be registered", name)
		}
	}
}

func TestInvalidCommand(t *testing.T) {
	_, _, err := run(t, "invalid-command")
	if err == nil {
		t.Error("Expected error for invalid command")
	}
}

func TestInvalidFlag(t *testing.T) {
	_, _, err := run(t, "calculate", "--invalid-flag")
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ofmcalc dev")
}

func TestCalculateCommand_Console(t *testing.T) {
	out, _, err := run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile, "--id", "fund-1")
	require.NoError(t, err)
	assert.Contains(t, out, "FUNDING ENVELOPE CALCULATION")
	assert.Contains(t, out, "Grand Total")
	assert.Contains(t, out, "$256315.96")
}

func TestCalculateCommand_AllFundingsJSON(t *testing.T) {
	out, _, err := run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile, "--format", "json")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var decisions []string
	for dec.More() {
		var report struct {
			FundingID  string `json:"fundingId"`
			Decision   string `json:"decision"`
			GrandTotal string `json:"grandTotal"`
		}
		require.NoError(t, dec.Decode(&report))
		decisions = append(decisions, report.FundingID+"="+report.Decision)
		if report.FundingID == "fund-1" {
			assert.Equal(t, "256315.96", report.GrandTotal)
		}
	}
	assert.Equal(t, []string{"fund-1=auto", "fund-2=manual", "fund-3=invalid"}, decisions)
}

func TestCalculateCommand_Verbose(t *testing.T) {
	out, _, err := run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile, "--id", "fund-1", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Total spaces:")
}

func TestCalculateCommand_OutDir(t *testing.T) {
	dir := t.TempDir()
	out, stderr, err := run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile,
		"--id", "fund-1", "--format", "yml", "-v", "--out-dir", dir)
	require.NoError(t, err)
	assert.Empty(t, out, "reports go to files, not stdout")
	assert.Contains(t, stderr, "wrote ")

	files, err := filepath.Glob(filepath.Join(dir, "funding_report_fund-1_*.yaml"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "fund-1")
	assert.Contains(t, string(content), "Total spaces:", "verbose breakdown is appended to the file")
}

func TestCalculateCommand_Errors(t *testing.T) {
	_, _, err := run(t, "calculate", "--schedules", schedulesFile)
	assert.Error(t, err, "funding file is required without --db")

	_, _, err = run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile, "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
	assert.Contains(t, err.Error(), "yml")

	_, _, err = run(t, "calculate", "--schedules", schedulesFile, "--funding", fundingFile, "--id", "missing")
	assert.Error(t, err)
}

func TestAllocateCommand(t *testing.T) {
	out, _, err := run(t, "allocate", "--schedules", schedulesFile, "--funding", fundingFile, "--id", "fund-2")
	require.NoError(t, err)
	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "gc-c")

	_, _, err = run(t, "allocate", "--schedules", schedulesFile, "--funding", fundingFile, "--id", "fund-1")
	assert.Error(t, err, "fund-1 is not room split")

	_, _, err = run(t, "allocate", "--schedules", schedulesFile, "--funding", fundingFile)
	assert.Error(t, err, "--id is required")
}

func TestValidateCommand(t *testing.T) {
	out, _, err := run(t, "validate", "--schedules", schedulesFile, "--funding", fundingFile)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 schedules)")
	assert.Contains(t, out, "(3 fundings)")
	assert.Contains(t, out, "funding fund-3 is not calculable")

	_, _, err = run(t, "validate")
	assert.Error(t, err)

	_, _, err = run(t, "validate", "--schedules", "missing.yaml")
	assert.Error(t, err)
}

func TestImportCalculateHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ofm.db")

	out, _, err := run(t, "import", "--db", db, "--schedules", schedulesFile, "--funding", fundingFile)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rate schedules and 3 fundings")

	_, stderr, err := run(t, "calculate", "--db", db, "--id", "fund-1", "--id", "fund-3", "--save")
	require.NoError(t, err)
	assert.Contains(t, stderr, "saved funding fund-1")
	assert.Contains(t, stderr, "funding fund-3 not saved (decision invalid)")

	out, _, err = run(t, "history", "--db", db, "--id", "fund-1")
	require.NoError(t, err)
	assert.Contains(t, out, "auto")
	assert.Contains(t, out, "$256315.96")

	out, _, err = run(t, "history", "--db", db, "--id", "fund-3")
	require.NoError(t, err)
	assert.Contains(t, out, "no saved runs for funding fund-3")
}

func TestImportCommand_MissingFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ofm.db")
	_, _, err := run(t, "import", "--db", db, "--schedules", "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

// writeRaisedSchedule writes rs-2026, rs-2025 with a higher ECE wage
func writeRaisedSchedule(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(schedulesFile)
	require.NoError(t, err)
	content := strings.Replace(string(data), "id: rs-2025", "id: rs-2026", 1)
	content = strings.Replace(content, "      ece: 25\n", "      ece: 30\n", 1)
	path := filepath.Join(t.TempDir(), "rate_schedules_2026.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompareCommand(t *testing.T) {
	raised := writeRaisedSchedule(t)

	out, _, err := run(t, "compare", "--schedules", schedulesFile, "--schedules", raised,
		"--funding", fundingFile, "--id", "fund-1", "--against", "rs-2026")
	require.NoError(t, err)
	assert.Contains(t, out, "RATE SCHEDULE COMPARISON")
	assert.Contains(t, out, "rs-2025 (base)")
	assert.Contains(t, out, "Highest funding: rs-2026")

	out, _, err = run(t, "compare", "--schedules", schedulesFile, "--schedules", raised,
		"--funding", fundingFile, "--id", "fund-1", "--against", "rs-2026", "--format", "json")
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "rs-2025", decoded["baseScheduleId"])
	assert.Contains(t, decoded, "baseEnvelopes")

	_, _, err = run(t, "compare", "--schedules", schedulesFile, "--funding", fundingFile,
		"--id", "fund-1", "--against", "rs-2026")
	assert.Error(t, err, "rs-2026 is not loaded")

	_, _, err = run(t, "compare", "--schedules", schedulesFile, "--funding", fundingFile,
		"--id", "fund-1", "--format", "xml")
	assert.Error(t, err)
}
