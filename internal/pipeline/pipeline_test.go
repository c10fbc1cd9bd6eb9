package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/szaher/pomsmith/internal/events"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/state"
)

const warPom = `<project>
  <groupId>com.example</groupId>
  <artifactId>web</artifactId>
  <version>1.0.0</version>
  <build>
    <plugins>
      <plugin>
        <groupId>org.apache.maven.plugins</groupId>
        <artifactId>maven-war-plugin</artifactId>
        <version>2.3</version>
      </plugin>
    </plugins>
  </build>
</project>`

const changeRecipe = `version: "1"
operations:
  - changePlugin:
      groupId: org.apache.maven.plugins
      artifactId: maven-war-plugin
      version: "3.3.2"
      ifNotPresent: noop
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func parseRecipe(t *testing.T, data string) *recipe.Recipe {
	t.Helper()
	rec, err := recipe.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse recipe: %v", err)
	}
	return rec
}

func newRunner(t *testing.T, root string) (*Runner, *events.CollectorEmitter) {
	t.Helper()
	collector := &events.CollectorEmitter{}
	return &Runner{
		Root:    root,
		Backend: state.NewLocalBackend(filepath.Join(t.TempDir(), "state.json")),
		Emitter: collector,
	}, collector
}

func TestRunTransformsFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"web/pom.xml": warPom,
		"api/pom.xml": warPom,
	})
	rec := parseRecipe(t, changeRecipe)
	runner, collector := newRunner(t, root)

	res, err := runner.Run(context.Background(), rec, "corr-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != "completed" {
		t.Errorf("Status = %q, want completed", res.Status)
	}
	if res.Changed != 2 || res.Errors != 0 {
		t.Errorf("Changed = %d, Errors = %d", res.Changed, res.Errors)
	}

	// Files are rewritten on disk.
	for _, rel := range []string{"web/pom.xml", "api/pom.xml"} {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "<version>3.3.2</version>") {
			t.Errorf("%s not rewritten:\n%s", rel, data)
		}
		if !strings.Contains(string(data), "<extensions>true</extensions>") {
			t.Errorf("%s missing forced extensions flag", rel)
		}
	}

	// State records both files as applied.
	entries, err := runner.Backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("state has %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Status != state.StatusApplied || e.RecipeHash != rec.Hash {
			t.Errorf("entry %+v", e)
		}
	}

	// Lifecycle events bracket the run.
	if len(collector.Events) == 0 {
		t.Fatal("no events emitted")
	}
	if collector.Events[0].Type != events.RunStarted {
		t.Errorf("first event = %q", collector.Events[0].Type)
	}
	last := collector.Events[len(collector.Events)-1]
	if last.Type != events.RunCompleted {
		t.Errorf("last event = %q", last.Type)
	}
	if last.CorrelationID != "corr-1" {
		t.Errorf("correlation id = %q", last.CorrelationID)
	}
}

func TestRunSecondPassSkips(t *testing.T) {
	root := writeTree(t, map[string]string{"pom.xml": warPom})
	rec := parseRecipe(t, changeRecipe)
	runner, _ := newRunner(t, root)

	if _, err := runner.Run(context.Background(), rec, "c1"); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstBytes, err := os.ReadFile(filepath.Join(root, "pom.xml"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := runner.Run(context.Background(), rec, "c2")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Skipped != 1 || res.Changed != 0 {
		t.Errorf("Skipped = %d, Changed = %d, want 1 and 0", res.Skipped, res.Changed)
	}

	secondBytes, err := os.ReadFile(filepath.Join(root, "pom.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(firstBytes) != string(secondBytes) {
		t.Error("skipped file must not be rewritten")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := writeTree(t, map[string]string{"pom.xml": warPom})
	rec := parseRecipe(t, changeRecipe)
	runner, _ := newRunner(t, root)
	runner.DryRun = true

	res, err := runner.Run(context.Background(), rec, "c1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Changed != 1 {
		t.Errorf("Changed = %d, want 1 (in memory)", res.Changed)
	}

	data, err := os.ReadFile(filepath.Join(root, "pom.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != warPom {
		t.Error("dry run must not rewrite files")
	}

	entries, err := runner.Backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("dry run must not save state, got %+v", entries)
	}
}

func TestRunOperationFailure(t *testing.T) {
	const failRecipe = `version: "1"
operations:
  - changePlugin:
      groupId: g
      artifactId: missing
      version: "1"
`
	root := writeTree(t, map[string]string{"pom.xml": warPom})
	rec := parseRecipe(t, failRecipe)
	runner, collector := newRunner(t, root)

	res, err := runner.Run(context.Background(), rec, "c1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != "failed" {
		t.Errorf("Status = %q, want failed", res.Status)
	}
	if res.Errors != 1 {
		t.Errorf("Errors = %d, want 1", res.Errors)
	}

	// Failed file must not be rewritten.
	data, err := os.ReadFile(filepath.Join(root, "pom.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != warPom {
		t.Error("failed file must not be rewritten")
	}

	// Failure is recorded in state.
	entries, err := runner.Backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != state.StatusFailed {
		t.Errorf("state = %+v", entries)
	}
	if entries[0].Error == "" {
		t.Error("failed entry should record the error message")
	}

	last := collector.Events[len(collector.Events)-1]
	if last.Type != events.RunFailed {
		t.Errorf("last event = %q, want run.failed", last.Type)
	}
}

func TestRunParseFailure(t *testing.T) {
	root := writeTree(t, map[string]string{"pom.xml": "<project><broken>"})
	rec := parseRecipe(t, changeRecipe)
	runner, _ := newRunner(t, root)

	res, err := runner.Run(context.Background(), rec, "c1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != "failed" {
		t.Errorf("Status = %q, want failed", res.Status)
	}

	entries, err := runner.Backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != state.StatusFailed {
		t.Errorf("state = %+v", entries)
	}
}

func TestRunEmptyTree(t *testing.T) {
	root := t.TempDir()
	rec := parseRecipe(t, changeRecipe)
	runner, _ := newRunner(t, root)

	res, err := runner.Run(context.Background(), rec, "c1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != "completed" || len(res.Files) != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestRunConcurrencyLimit(t *testing.T) {
	files := make(map[string]string)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[name+"/pom.xml"] = warPom
	}
	root := writeTree(t, files)
	rec := parseRecipe(t, changeRecipe)
	runner, _ := newRunner(t, root)
	runner.Concurrency = 2

	res, err := runner.Run(context.Background(), rec, "c1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Changed != len(files) {
		t.Errorf("Changed = %d, want %d", res.Changed, len(files))
	}
}
