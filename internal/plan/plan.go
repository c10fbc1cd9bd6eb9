// Package plan implements the dry-run engine: it computes what a
// recipe would change across a project tree without writing any file.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/result"
	"github.com/szaher/pomsmith/internal/state"
)

// ActionType classifies what a run would do to one file.
type ActionType string

const (
	// ActionChange means at least one operation would modify the file.
	ActionChange ActionType = "change"

	// ActionNoop means every operation leaves the file as it is.
	ActionNoop ActionType = "noop"

	// ActionSkip means the file is unchanged since the recipe was last
	// applied to it.
	ActionSkip ActionType = "skip"

	// ActionError means an operation would fail on the file.
	ActionError ActionType = "error"
)

// Action describes the planned effect on a single POM file.
type Action struct {
	Path     string
	Type     ActionType
	Reason   string
	Outcomes []result.Outcome
}

// Plan represents the computed effect of a recipe on a project tree.
type Plan struct {
	Actions    []Action
	HasChanges bool
	HasErrors  bool
}

// Compute runs the recipe against in-memory copies of every POM file
// under root and reports what would change. Files whose recorded state
// matches both the current content and the recipe are skipped, the same
// way the apply pipeline skips them.
func Compute(root string, rec *recipe.Recipe, current []state.Entry) (*Plan, error) {
	paths, err := pom.Discover(root)
	if err != nil {
		return nil, err
	}

	currentMap := make(map[string]state.Entry, len(current))
	for _, e := range current {
		currentMap[e.Path] = e
	}

	p := &Plan{}
	for _, path := range paths {
		action, err := computeFile(root, path, rec, currentMap)
		if err != nil {
			return nil, err
		}
		switch action.Type {
		case ActionChange:
			p.HasChanges = true
		case ActionError:
			p.HasErrors = true
		}
		p.Actions = append(p.Actions, action)
	}
	return p, nil
}

func computeFile(root, path string, rec *recipe.Recipe, current map[string]state.Entry) (Action, error) {
	data, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return Action{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if entry, ok := current[path]; ok &&
		entry.Status == state.StatusApplied &&
		entry.Hash == state.HashBytes(data) &&
		entry.RecipeHash == rec.Hash {
		return Action{
			Path:   path,
			Type:   ActionSkip,
			Reason: "unchanged since last apply",
		}, nil
	}

	doc, err := pom.Parse(data, path)
	if err != nil {
		return Action{
			Path:   path,
			Type:   ActionError,
			Reason: err.Error(),
		}, nil
	}

	before, err := doc.Marshal()
	if err != nil {
		return Action{}, err
	}

	outcomes := rec.Apply(doc)

	for _, o := range outcomes {
		if o.Status == result.StatusError {
			return Action{
				Path:     path,
				Type:     ActionError,
				Reason:   o.Message(),
				Outcomes: outcomes,
			}, nil
		}
	}

	after, err := doc.Marshal()
	if err != nil {
		return Action{}, err
	}

	if bytes.Equal(before, after) {
		return Action{
			Path:     path,
			Type:     ActionNoop,
			Reason:   "all operations are no-ops",
			Outcomes: outcomes,
		}, nil
	}
	return Action{
		Path:     path,
		Type:     ActionChange,
		Reason:   "operations modify the file",
		Outcomes: outcomes,
	}, nil
}
