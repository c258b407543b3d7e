package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashcheck-dev/cashcheck/internal/commands"
	"github.com/cashcheck-dev/cashcheck/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "cashcheck-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "cashcheck")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/cashcheck")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runCashcheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"CASHCHECK_DATABASE_URL=",
		"CASHCHECK_SESSION_ID=",
		"LOG_LEVEL=error",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func initProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	out, err := runCashcheck(t, "init", dir, "--session", "household")
	require.NoError(t, err, out)
	return dir, filepath.Join(dir, config.FileName)
}

func copyFixture(t *testing.T, name, dstDir string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dstDir, name), data, 0o644))
}

func TestInit_CreatesStructure(t *testing.T) {
	dir, _ := initProject(t)

	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{config.FileName, "rules.yaml", ".gitignore", commands.StateFile} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "%s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir, _ := initProject(t)

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "id: household")
	assert.Contains(t, contents, "timezone: America/Los_Angeles")
	assert.Contains(t, contents, "rules_file: rules.yaml")
}

func TestInit_Idempotent(t *testing.T) {
	dir, _ := initProject(t)

	out, err := runCashcheck(t, "init", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "already initialized")
}

func TestImportDirectoryThenReports(t *testing.T) {
	dir, configPath := initProject(t)
	importDir := filepath.Join(dir, "import")
	copyFixture(t, "chase_checking.csv", importDir)
	copyFixture(t, "venmo_statement.csv", importDir)

	out, err := runCashcheck(t, "import", "--config", configPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "chase_checking.csv: CHASE, 6 imported, 0 duplicates, 0 transfers matched")
	assert.Contains(t, out, "venmo_statement.csv: VENMO, 4 imported, 0 duplicates, 1 transfers matched")

	// Both files moved to processed/.
	processed, err := os.ReadDir(filepath.Join(importDir, "processed"))
	require.NoError(t, err)
	assert.Len(t, processed, 2)
	entries, err := os.ReadDir(importDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".csv"), "%s left in import/", e.Name())
	}

	// State persists across runs.
	out, err = runCashcheck(t, "import", "--config", configPath, filepath.Join(importDir, "processed", "chase_checking.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "chase_checking.csv: already imported (6 transactions)")

	out, err = runCashcheck(t, "transfers", "--config", configPath, "--month", "2025-07")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2025-07: 1 open candidates, 0 pairs matched")

	out, err = runCashcheck(t, "reapply", "--config", configPath, "--month", "2025-07")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2025-07: 0 of 8 transactions recategorized")
}

func TestImport_EmptyDirectory(t *testing.T) {
	_, configPath := initProject(t)

	out, err := runCashcheck(t, "import", "--config", configPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No CSV files")
}

func TestImport_Errors(t *testing.T) {
	dir, configPath := initProject(t)

	_, err := runCashcheck(t, "import", "--config", configPath, "--source", "paypal", "x.csv")
	require.Error(t, err)

	junk := filepath.Join(dir, "junk.csv")
	require.NoError(t, os.WriteFile(junk, []byte("foo,bar\n1,2\n"), 0o644))
	out, err := runCashcheck(t, "import", "--config", configPath, junk)
	require.Error(t, err)
	assert.Contains(t, out, "junk.csv: error: unrecognized csv format")
}

func TestTransfers_RequiresMonth(t *testing.T) {
	_, configPath := initProject(t)

	_, err := runCashcheck(t, "transfers", "--config", configPath)
	require.Error(t, err)

	_, err = runCashcheck(t, "reapply", "--config", configPath, "--month", "2025-13")
	require.Error(t, err)
}

func TestDetect(t *testing.T) {
	out, err := runCashcheck(t, "detect", filepath.Join("..", "..", "testdata", "venmo_statement.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "VENMO (confidence")
	assert.Contains(t, out, "header line 3")

	out, err = runCashcheck(t, "detect", filepath.Join("..", "..", "testdata", "chase_card.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "CHASE (confidence")
}
