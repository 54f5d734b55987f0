package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
)

type cliTestEnv struct {
	dir        string
	dbPath     string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	dir := t.TempDir()
	env := &cliTestEnv{
		dir:        dir,
		dbPath:     filepath.Join(dir, "goalio.db"),
		configPath: filepath.Join(dir, "goalio.toml"),
	}
	cfg := fmt.Sprintf("[store]\ndriver = \"sqlite\"\ndsn = %q\nmax_conns = 1\n\n[logging]\nlevel = \"error\"\n", env.dbPath)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func requireContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("output does not contain %q:\n%s", substr, s)
	}
}

func TestKindsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "", "kinds")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	requireContains(t, out, "action")
	requireContains(t, out, "Personal Value")
	requireContains(t, out, "TermNumber")
}

func TestTemplateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "", "template", "goals")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	want := "ID,Title,Description,Notes,StartDate,TargetDate,ActionPlan,ExpectedTermLength,Targets,ValueIDs\n"
	if out != want {
		t.Errorf("template = %q, want %q", out, want)
	}

	if _, err := runCLI(t, env, "", "template", "habit"); err == nil {
		t.Error("template habit: expected error")
	}
}

func TestImportThenExport(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.writeFile(t, "values.csv", "Title,Priority\nHealth,10\n")

	out, err := runCLI(t, env, "", "import", "value", src, "--yes")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	requireContains(t, out, "Imported 1, skipped 0, failed 0 of 1 records")

	out, err = runCLI(t, env, "", "export", "value", "--format", "json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, `"title": "Health"`)
	requireContains(t, out, `"priority": 10`)

	// A second file with the same title and a fresh id is only similar.
	out, err = runCLI(t, env, "", "import", "value", src, "--yes", "--skip-similar")
	if err != nil {
		t.Fatalf("second import: %v\n%s", err, out)
	}
	requireContains(t, out, "semanticDuplicate")
	requireContains(t, out, "Nothing to import.")
}

func TestImport_PromptDeclined(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.writeFile(t, "values.json", `[{"title": "Family"}]`)

	out, err := runCLI(t, env, "n\n", "import", "value", src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Import 1 of 1 records? [y/N]")
	requireContains(t, out, "Import cancelled.")

	out, err = runCLI(t, env, "", "export", "value")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out != "ID,Title,Description,Notes,Priority,ValueLevel,LifeDomain,AlignmentGuidance\n" {
		t.Errorf("export after declined import = %q, want header only", out)
	}
}

func TestPreview_MappingError(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.writeFile(t, "actions.csv", "Title,LogTime\nRun,yesterday\n")

	_, err := runCLI(t, env, "", "preview", "action", src)
	if err == nil {
		t.Fatal("preview: expected error")
	}
	requireContains(t, err.Error(), "MAP002")
}

func TestExport_ToDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	outDir := filepath.Join(env.dir, "exports")

	out, err := runCLI(t, env, "", "export", "term", "--out", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := strings.TrimSpace(out)
	if filepath.Dir(path) != outDir || !strings.HasSuffix(path, ".csv") {
		t.Fatalf("export path = %q, want a csv file in %s", path, outDir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat export: %v", err)
	}
}

func TestImport_LockHeld(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.writeFile(t, "values.csv", "Title\nHealth\n")

	other := flock.New(env.dbPath + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer other.Unlock()

	_, err = runCLI(t, env, "", "import", "value", src, "--yes")
	if err == nil {
		t.Fatal("import: expected lock error")
	}
	requireContains(t, err.Error(), "another goalio import is running")
}
