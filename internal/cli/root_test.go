package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/phasehull/pkg/cache"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

const feO = `{
  "components": ["Fe", "O"],
  "entries": [
    {"label": "Fe", "composition": {"Fe": 1}, "energy": 0},
    {"label": "O", "composition": {"O": 1}, "energy": 0},
    {"label": "Fe2O3", "composition": {"Fe": 2, "O": 3}, "energy": -1.7},
    {"label": "FeO", "composition": {"Fe": 1, "O": 1}, "energy": -1.5},
    {"label": "Fe3O4", "composition": {"Fe": 3, "O": 4}, "energy": -1.0}
  ]
}`

const ternary = `{
  "components": ["A", "B", "C"],
  "entries": [
    {"label": "A", "composition": [1, 0, 0], "energy": 0},
    {"label": "B", "composition": [0, 1, 0], "energy": 0},
    {"label": "C", "composition": [0, 0, 1], "energy": 0},
    {"label": "ABC", "composition": {"A": 1, "B": 1, "C": 1}, "energy": -0.9}
  ]
}`

const series = `{
  "components": ["A", "B"],
  "samples": [
    {"temperature": 300, "entries": [
      {"label": "A", "composition": [1, 0], "energy": 0},
      {"label": "M", "composition": [0.5, 0.5], "energy": 0.1},
      {"label": "B", "composition": [0, 1], "energy": 0}
    ]},
    {"temperature": 600, "entries": [
      {"label": "A", "composition": [1, 0], "energy": 0},
      {"label": "M", "composition": [0.5, 0.5], "energy": -0.1},
      {"label": "B", "composition": [0, 1], "energy": 0}
    ]}
  ]
}`

// testEnv is a temp directory holding a config file with a private file cache.
type testEnv struct {
	dir      string
	config   string
	cacheDir string
}

func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:      dir,
		config:   filepath.Join(dir, "config.toml"),
		cacheDir: filepath.Join(dir, "cache"),
	}
	toml := fmt.Sprintf("[cache]\nbackend = %q\ndir = %q\n", backend, env.cacheDir)
	if err := os.WriteFile(env.config, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with args and returns what the command wrote to its
// output stream.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	c.profileDir = e.dir
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&syncBuffer{})
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := c.execute(context.Background(), root)
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	want := []string{"hull", "sweep", "chempot", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	env := newTestEnv(t, "null")
	out, err := env.run(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out, "phasehull version") {
		t.Errorf("version output = %q", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	env := newTestEnv(t, "null")
	out, err := env.run(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "phasehull") {
		t.Error("bash completion should mention the program name")
	}

	if _, err := env.run(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestRootCommand_BadConfig(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "feo.json", feO)

	var logs bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&logs)
	root.SetArgs([]string{"--config", filepath.Join(env.dir, "missing.toml"), "hull", data})
	err := root.ExecuteContext(context.Background())
	if got := perr.GetCode(err); got != perr.ErrCodeFileNotFound {
		t.Errorf("code = %s, want %s (%v)", got, perr.ErrCodeFileNotFound, err)
	}
}

func TestHullCommand_JSON(t *testing.T) {
	env := newTestEnv(t, "file")
	data := env.file(t, "feo.json", feO)

	out, err := env.run(t, "hull", data, "--json")
	if err != nil {
		t.Fatalf("hull: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.CacheHit {
		t.Error("first run should not hit the cache")
	}
	if len(res.Document.Stable) != 4 || len(res.Document.Unstable) != 1 {
		t.Errorf("stable/unstable = %d/%d, want 4/1", len(res.Document.Stable), len(res.Document.Unstable))
	}
	if u := res.Document.Unstable[0]; u.Label != "Fe3O4" || u.EAboveHull <= 0 {
		t.Errorf("unstable = %+v, want Fe3O4 above the hull", u)
	}

	out, err = env.run(t, "hull", data, "--json")
	if err != nil {
		t.Fatalf("hull (cached): %v", err)
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if !res.CacheHit {
		t.Error("second run should hit the cache")
	}
}

func TestHullCommand_Tables(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "feo.json", feO)

	out, err := env.run(t, "hull", data)
	if err != nil {
		t.Fatalf("hull: %v", err)
	}
	for _, want := range []string{"Stable", "Unstable", "Fe2O3", "Fe3O4", "Decomposes to"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHullCommand_Output(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "feo.json", feO)
	dest := filepath.Join(env.dir, "out.json")

	if _, err := env.run(t, "hull", data, "-o", dest); err != nil {
		t.Fatalf("hull: %v", err)
	}
	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(raw), `"e_above_hull"`) {
		t.Errorf("output file is not a document:\n%s", raw)
	}
}

func TestHullCommand_SeriesTemperature(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "series.json", series)

	out, err := env.run(t, "hull", data, "--temperature", "600", "--json")
	if err != nil {
		t.Fatalf("hull: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Document.Stable) != 3 {
		t.Errorf("stable = %d, want 3 at T=600", len(res.Document.Stable))
	}

	_, err = env.run(t, "hull", data, "--temperature", "1000")
	if got := perr.GetCode(err); got != perr.ErrCodeOutOfRange {
		t.Errorf("code = %s, want %s", got, perr.ErrCodeOutOfRange)
	}
}

func TestHullCommand_Errors(t *testing.T) {
	env := newTestEnv(t, "null")
	missing := filepath.Join(env.dir, "missing.json")
	bad := env.file(t, "bad.json", `{"entries": [`)

	tests := []struct {
		name string
		args []string
		code perr.Code
	}{
		{"missing file", []string{"hull", missing}, perr.ErrCodeFileNotFound},
		{"malformed", []string{"hull", bad}, perr.ErrCodeInvalidFormat},
		{"bad tolerance", []string{"hull", env.file(t, "ok.json", feO), "--tolerance", "-1"}, perr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			if got := perr.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestCPUProfileStoppedOnError(t *testing.T) {
	env := newTestEnv(t, "null")

	if _, err := env.run(t, "--cpuprofile", "hull", filepath.Join(env.dir, "missing.json")); err == nil {
		t.Fatal("hull of a missing file should fail")
	}
	info, err := os.Stat(filepath.Join(env.dir, "cpu.pprof"))
	if err != nil {
		t.Fatalf("profile not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("profile is empty")
	}
}

func TestScopedCacheKeys(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.Config.Cache.Backend = "null"
	c.Config.Cache.Scope = "lab"
	runner, err := c.newRunner(context.Background())
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	defer runner.Close()
	if key := runner.Keyer.DiagramKey("abc", cache.DiagramKeyOpts{}); !strings.HasPrefix(key, "lab:") {
		t.Errorf("DiagramKey = %q, want lab: prefix", key)
	}

	env := newTestEnv(t, "file")
	data := env.file(t, "feo.json", feO)
	hit := func() bool {
		t.Helper()
		out, err := env.run(t, "hull", data, "--json")
		if err != nil {
			t.Fatalf("hull: %v", err)
		}
		var res pipeline.Result
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatal(err)
		}
		return res.CacheHit
	}

	hit()
	f, err := os.OpenFile(env.config, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("scope = \"lab\"\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if hit() {
		t.Error("a scoped run should not see unscoped entries")
	}
	if !hit() {
		t.Error("second scoped run should hit the cache")
	}
}

func TestSweepCommand(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "series.json", series)

	out, err := env.run(t, "sweep", data, "--json")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var res pipeline.SweepResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Slices) != 2 {
		t.Errorf("slices = %d, want 2", len(res.Slices))
	}
	if len(res.SpecialPoints) == 0 {
		t.Error("expected the appearance of M to be reported")
	}

	out, err = env.run(t, "sweep", data, "--temps", "500")
	if err != nil {
		t.Fatalf("sweep --temps: %v", err)
	}
	if !strings.Contains(out, "Invariant points") {
		t.Errorf("output missing invariant points:\n%s", out)
	}
}

func TestChemPotCommand(t *testing.T) {
	env := newTestEnv(t, "null")
	data := env.file(t, "ternary.json", ternary)

	out, err := env.run(t, "chempot", data, "--axes", "A,B,C", "--json")
	if err != nil {
		t.Fatalf("chempot: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Document.ChemPot == nil || len(res.Document.ChemPot.Vertices) != 3 {
		t.Fatalf("chempot = %+v, want 3 vertices", res.Document.ChemPot)
	}

	_, err = env.run(t, "chempot", data, "--axes", "A,B")
	if got := perr.GetCode(err); got != perr.ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", got, perr.ErrCodeInvalidInput)
	}

	binary := env.file(t, "feo.json", feO)
	_, err = env.run(t, "chempot", binary)
	if got := perr.GetCode(err); got != perr.ErrCodeInvalidInput {
		t.Errorf("binary chempot code = %s, want %s", got, perr.ErrCodeInvalidInput)
	}
}
