// Package recipe loads and validates YAML transformation recipes.
//
// A recipe is an ordered list of operations applied to every POM file
// of a project tree. Loading a recipe performs all construction-time
// validation: unknown fields, malformed operations, duplicate plugin
// execution ids, and invalid `when` conditions are all rejected before
// any document is touched.
package recipe

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/szaher/pomsmith/internal/expr"
	"github.com/szaher/pomsmith/internal/operations"
	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// SupportedVersion is the recipe schema version this build understands.
const SupportedVersion = "1"

// File is the on-disk recipe structure.
type File struct {
	Version    string  `yaml:"version"`
	Operations []Entry `yaml:"operations"`
}

// Entry is one operation in a recipe. Exactly one operation key must be
// set. When optionally guards the operation with a condition evaluated
// against each document.
type Entry struct {
	When             string                 `yaml:"when,omitempty"`
	ChangePlugin     *ChangePluginEntry     `yaml:"changePlugin,omitempty"`
	RemovePlugin     *RemovePluginEntry     `yaml:"removePlugin,omitempty"`
	AddPlugin        *AddPluginEntry        `yaml:"addPlugin,omitempty"`
	SetProperty      *SetPropertyEntry      `yaml:"setProperty,omitempty"`
	RemoveProperty   *RemovePropertyEntry   `yaml:"removeProperty,omitempty"`
	ChangeDependency *ChangeDependencyEntry `yaml:"changeDependency,omitempty"`
}

// ChangePluginEntry mirrors operations.ChangePluginSpec in YAML form.
type ChangePluginEntry struct {
	GroupID      string          `yaml:"groupId"`
	ArtifactID   string          `yaml:"artifactId"`
	Version      string          `yaml:"version,omitempty"`
	Extensions   string          `yaml:"extensions,omitempty"`
	Executions   []Execution     `yaml:"executions,omitempty"`
	Dependencies []DependencyRef `yaml:"dependencies,omitempty"`
	Goals        []string        `yaml:"goals,omitempty"`

	RemoveVersion      bool `yaml:"removeVersion,omitempty"`
	RemoveExtensions   bool `yaml:"removeExtensions,omitempty"`
	RemoveExecutions   bool `yaml:"removeExecutions,omitempty"`
	RemoveDependencies bool `yaml:"removeDependencies,omitempty"`
	RemoveGoals        bool `yaml:"removeGoals,omitempty"`

	IfNotPresent string `yaml:"ifNotPresent,omitempty"`
}

// RemovePluginEntry identifies a plugin to delete.
type RemovePluginEntry struct {
	GroupID      string `yaml:"groupId"`
	ArtifactID   string `yaml:"artifactId"`
	IfNotPresent string `yaml:"ifNotPresent,omitempty"`
}

// AddPluginEntry mirrors operations.AddPluginSpec in YAML form.
type AddPluginEntry struct {
	GroupID      string          `yaml:"groupId"`
	ArtifactID   string          `yaml:"artifactId"`
	Version      string          `yaml:"version,omitempty"`
	Extensions   string          `yaml:"extensions,omitempty"`
	Executions   []Execution     `yaml:"executions,omitempty"`
	Dependencies []DependencyRef `yaml:"dependencies,omitempty"`
	IfPresent    string          `yaml:"ifPresent,omitempty"`
}

// SetPropertyEntry names a property and its new value.
type SetPropertyEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// RemovePropertyEntry names a property to delete.
type RemovePropertyEntry struct {
	Name         string `yaml:"name"`
	IfNotPresent string `yaml:"ifNotPresent,omitempty"`
}

// ChangeDependencyEntry mirrors operations.ChangeDependencySpec in YAML
// form.
type ChangeDependencyEntry struct {
	GroupID    string `yaml:"groupId"`
	ArtifactID string `yaml:"artifactId"`
	Version    string `yaml:"version,omitempty"`
	Scope      string `yaml:"scope,omitempty"`

	RemoveVersion bool `yaml:"removeVersion,omitempty"`
	RemoveScope   bool `yaml:"removeScope,omitempty"`

	IfNotPresent string `yaml:"ifNotPresent,omitempty"`
}

// Execution is the YAML form of a plugin execution.
type Execution struct {
	ID    string   `yaml:"id,omitempty"`
	Phase string   `yaml:"phase,omitempty"`
	Goals []string `yaml:"goals,omitempty"`
}

// DependencyRef is the YAML form of a dependency declaration.
type DependencyRef struct {
	GroupID    string `yaml:"groupId"`
	ArtifactID string `yaml:"artifactId"`
	Version    string `yaml:"version,omitempty"`
	Scope      string `yaml:"scope,omitempty"`
}

// Step pairs a built operation with its optional compiled condition.
type Step struct {
	Op   operations.Operation
	When *expr.CompiledExpr
}

// Recipe is a loaded, validated recipe ready to apply.
type Recipe struct {
	Version string
	Steps   []Step

	// Hash identifies the recipe content; the state backend records it
	// so a changed recipe invalidates previously applied files.
	Hash string
}

// Load reads and parses the recipe file at path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return rec, nil
}

// Parse parses recipe data from YAML bytes. All entries are validated;
// errors across entries are collected and reported together.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty recipe")
		}
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}

	if f.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported recipe version %q (want %q)", f.Version, SupportedVersion)
	}
	if len(f.Operations) == 0 {
		return nil, fmt.Errorf("recipe has no operations")
	}

	rec := &Recipe{Version: f.Version, Hash: hashBytes(data)}

	var errs []error
	for i, entry := range f.Operations {
		step, err := buildStep(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("operation %d: %w", i+1, err))
			continue
		}
		rec.Steps = append(rec.Steps, step)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rec, nil
}

// Apply runs every step against the document in order, honoring `when`
// guards. Steps whose guard is false are skipped silently. Processing
// stops at the first error outcome; the remaining steps are not
// attempted, so the caller sees either a fully processed document or
// the exact operation that failed.
func (r *Recipe) Apply(doc *pom.Document) []result.Outcome {
	var outcomes []result.Outcome
	for _, step := range r.Steps {
		if step.When != nil {
			// Rebuilt per step: earlier operations may have changed
			// the properties a later guard reads.
			ctx := expr.FromDocument(doc)
			match, err := expr.EvalBool(step.When, ctx)
			if err != nil {
				failed := result.Error(step.Op.Describe(doc), err)
				failed.Name = step.Op.Name()
				outcomes = append(outcomes, failed)
				break
			}
			if !match {
				continue
			}
		}
		outcome := step.Op.Execute(doc)
		outcome.Name = step.Op.Name()
		outcomes = append(outcomes, outcome)
		if outcome.Status == result.StatusError {
			break
		}
	}
	return outcomes
}

func buildStep(entry Entry) (Step, error) {
	op, err := buildOperation(entry)
	if err != nil {
		return Step{}, err
	}

	step := Step{Op: op}
	if entry.When != "" {
		when, err := expr.CompileUnchecked(entry.When)
		if err != nil {
			return Step{}, fmt.Errorf("when %q: %w", entry.When, err)
		}
		step.When = when
	}
	return step, nil
}

func buildOperation(entry Entry) (operations.Operation, error) {
	var (
		op    operations.Operation
		err   error
		count int
	)

	if e := entry.ChangePlugin; e != nil {
		count++
		op, err = operations.NewChangePlugin(e.GroupID, e.ArtifactID, operations.ChangePluginSpec{
			Version:            e.Version,
			Extensions:         e.Extensions,
			Executions:         toExecutions(e.Executions),
			Dependencies:       toDependencies(e.Dependencies),
			Goals:              toGoals(e.Goals),
			RemoveVersion:      e.RemoveVersion,
			RemoveExtensions:   e.RemoveExtensions,
			RemoveExecutions:   e.RemoveExecutions,
			RemoveDependencies: e.RemoveDependencies,
			RemoveGoals:        e.RemoveGoals,
			IfNotPresent:       operations.IfNotPresent(e.IfNotPresent),
		})
	}
	if e := entry.RemovePlugin; e != nil {
		count++
		op, err = operations.NewRemovePlugin(e.GroupID, e.ArtifactID,
			operations.IfNotPresent(e.IfNotPresent))
	}
	if e := entry.AddPlugin; e != nil {
		count++
		op, err = operations.NewAddPlugin(e.GroupID, e.ArtifactID, operations.AddPluginSpec{
			Version:      e.Version,
			Extensions:   e.Extensions,
			Executions:   toExecutions(e.Executions),
			Dependencies: toDependencies(e.Dependencies),
			IfPresent:    operations.IfPresent(e.IfPresent),
		})
	}
	if e := entry.SetProperty; e != nil {
		count++
		op, err = operations.NewSetProperty(e.Name, e.Value)
	}
	if e := entry.RemoveProperty; e != nil {
		count++
		op, err = operations.NewRemoveProperty(e.Name,
			operations.IfNotPresent(e.IfNotPresent))
	}
	if e := entry.ChangeDependency; e != nil {
		count++
		op, err = operations.NewChangeDependency(e.GroupID, e.ArtifactID, operations.ChangeDependencySpec{
			Version:       e.Version,
			Scope:         e.Scope,
			RemoveVersion: e.RemoveVersion,
			RemoveScope:   e.RemoveScope,
			IfNotPresent:  operations.IfNotPresent(e.IfNotPresent),
		})
	}

	if count == 0 {
		return nil, fmt.Errorf("no operation specified")
	}
	if count > 1 {
		return nil, fmt.Errorf("exactly one operation per entry, found %d", count)
	}
	return op, err
}

func toExecutions(entries []Execution) []pom.PluginExecution {
	if entries == nil {
		return nil
	}
	execs := make([]pom.PluginExecution, 0, len(entries))
	for _, e := range entries {
		execs = append(execs, pom.PluginExecution{
			ID:    e.ID,
			Phase: e.Phase,
			Goals: e.Goals,
		})
	}
	return execs
}

func toDependencies(entries []DependencyRef) []pom.Dependency {
	if entries == nil {
		return nil
	}
	deps := make([]pom.Dependency, 0, len(entries))
	for _, e := range entries {
		deps = append(deps, pom.Dependency{
			GroupID:    e.GroupID,
			ArtifactID: e.ArtifactID,
			Version:    e.Version,
			Scope:      e.Scope,
		})
	}
	return deps
}

func toGoals(names []string) *pom.Goals {
	if names == nil {
		return nil
	}
	return pom.GoalList(names...)
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
