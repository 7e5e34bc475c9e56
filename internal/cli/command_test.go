package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/kingrea/nbtidy/internal/config"
	"github.com/kingrea/nbtidy/internal/notebook"
	"github.com/kingrea/nbtidy/internal/pass"
	"github.com/kingrea/nbtidy/internal/passes/defguard"
	"github.com/kingrea/nbtidy/internal/passes/steporder"
)

const useOnly = `{"cells": [{"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": ["print(game_type_order)"]}], "metadata": {}, "nbformat": 4, "nbformat_minor": 4}`

const orderedSteps = `{"cells": [{"cell_type": "markdown", "metadata": {}, "source": ["## Step 1: A"]}, {"cell_type": "markdown", "metadata": {}, "source": ["## Step 2: B"]}], "metadata": {}, "nbformat": 4, "nbformat_minor": 4}`

func writeNotebook(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestExecuteInsertsAndSaves(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", useOnly)

	var out bytes.Buffer
	result, err := Execute(&out, defguard.ID, path, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Outcome != defguard.OutcomeInserted {
		t.Fatalf("outcome = %q, want %q", result.Outcome, defguard.OutcomeInserted)
	}
	nb, err := notebook.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(nb.Cells) != 2 || !nb.Cells[0].HasTag(config.DefaultSentinelTag) {
		t.Fatalf("saved notebook does not start with the guard cell: %d cells", len(nb.Cells))
	}
	if !strings.Contains(out.String(), "Inserted game_type_order definition cell at index 0.") {
		t.Fatalf("report missing message:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "wrote "+path) {
		t.Fatalf("report missing save line:\n%s", out.String())
	}
}

func TestExecuteDryRunDoesNotWrite(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", useOnly)

	var out bytes.Buffer
	result, err := Execute(&out, defguard.ID, path, Options{WorkDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Changed {
		t.Fatalf("dry run should still report a change: %+v", result)
	}
	if got := readFile(t, path); got != useOnly {
		t.Fatalf("dry run rewrote the notebook:\n%s", got)
	}
	if !strings.Contains(out.String(), "dry run") {
		t.Fatalf("report does not mention the dry run:\n%s", out.String())
	}
}

func TestExecuteNoOpLeavesFileUntouched(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", orderedSteps)

	var out bytes.Buffer
	result, err := Execute(&out, steporder.ID, path, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != pass.StatusNoOp || result.Outcome != steporder.OutcomeAlreadyOrdered {
		t.Fatalf("unexpected result: %+v", result)
	}
	// The compact input differs from the saved layout, so any write shows.
	if got := readFile(t, path); got != orderedSteps {
		t.Fatalf("no-op run rewrote the notebook:\n%s", got)
	}
}

func TestExecuteUsesConfiguredNotebook(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "analysis.ipynb", useOnly)
	cfg := "version: 1\nnotebook: analysis.ipynb\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if _, err := Execute(&out, defguard.ID, "", Options{WorkDir: dir}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := readFile(t, path); got == useOnly {
		t.Fatalf("configured notebook was not updated")
	}
}

func TestExecuteMissingDefaultNotebook(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()

	_, err := Execute(&bytes.Buffer{}, steporder.ID, "", Options{WorkDir: dir})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	if !strings.Contains(err.Error(), config.DefaultNotebook) {
		t.Fatalf("error does not name the default notebook: %v", err)
	}
}

func TestExecuteMalformedNotebook(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", `{"cells": {}}`)

	_, err := Execute(&bytes.Buffer{}, steporder.ID, path, Options{WorkDir: dir})
	if !errors.Is(err, notebook.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestExecuteUnknownPass(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", useOnly)

	if _, err := Execute(&bytes.Buffer{}, "no-such-pass", path, Options{WorkDir: dir}); err == nil {
		t.Fatalf("expected error for unknown pass")
	}
}

func TestCommandRunsWithFlags(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.ipynb", useOnly)
	cfgPath := filepath.Join(dir, "custom.yaml")
	cfg := "define:\n  symbol: model_order\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	cmd := NewCommand(defguard.ID)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "--dry-run", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "No usage of model_order found; no changes made.") {
		t.Fatalf("configured symbol not used:\n%s", out.String())
	}
}

func TestCommandRejectsExtraArgs(t *testing.T) {
	cmd := NewCommand(steporder.ID)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a.ipynb", "b.ipynb"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for two notebook arguments")
	}
}
