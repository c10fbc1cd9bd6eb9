package pom

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document pairs a parsed Project with the file's path relative to the
// project root. Operations mutate the Project through the Document so
// outcome messages can name the file they touched. The Document owns
// every plugin it holds: operations detach an entry, mutate it, and
// reattach it, never editing an entry while it is still registered.
type Document struct {
	Project *Project

	relPath string
}

// Parse builds a Document from raw POM bytes. relPath is the path shown
// in outcome messages.
func Parse(data []byte, relPath string) (*Document, error) {
	var proj Project
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relPath, err)
	}

	// The default namespace already lives in XMLName; dropping the
	// captured xmlns attributes keeps Marshal from writing them twice.
	attrs := proj.Attrs[:0]
	for _, attr := range proj.Attrs {
		if attr.Name.Local == "xmlns" || attr.Name.Space == "xmlns" {
			continue
		}
		attrs = append(attrs, attr)
	}
	proj.Attrs = attrs

	return &Document{Project: &proj, relPath: relPath}, nil
}

// Load reads and parses the POM file at relPath under root.
func Load(root, relPath string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}
	return Parse(data, relPath)
}

// RelativePath returns the document's path relative to the project root.
func (d *Document) RelativePath() string {
	return d.relPath
}

// Marshal serializes the document back to XML.
func (d *Document) Marshal() ([]byte, error) {
	data, err := xml.MarshalIndent(d.Project, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", d.relPath, err)
	}
	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, xml.Header...)
	out = append(out, data...)
	out = append(out, '\n')
	return out, nil
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() (*Document, error) {
	data, err := xml.Marshal(d.Project)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", d.relPath, err)
	}
	return Parse(data, d.relPath)
}

// FindPlugin returns the plugin whose (groupId, artifactId) pair matches
// exactly, or nil. Matching is case-sensitive with no normalization; the
// build section holds at most one plugin per identity.
func (d *Document) FindPlugin(groupID, artifactID string) *Plugin {
	if d.Project == nil || d.Project.Build == nil {
		return nil
	}
	plugins := d.Project.Build.Plugins
	for i := range plugins {
		if plugins[i].GroupID == groupID && plugins[i].ArtifactID == artifactID {
			return &plugins[i]
		}
	}
	return nil
}

// RemovePlugin detaches the plugin with the given identity from the
// build section and returns it.
func (d *Document) RemovePlugin(groupID, artifactID string) (*Plugin, bool) {
	if d.Project == nil || d.Project.Build == nil {
		return nil, false
	}
	plugins := d.Project.Build.Plugins
	for i := range plugins {
		if plugins[i].GroupID == groupID && plugins[i].ArtifactID == artifactID {
			detached := plugins[i]
			d.Project.Build.Plugins = append(plugins[:i:i], plugins[i+1:]...)
			return &detached, true
		}
	}
	return nil, false
}

// AddPlugin appends the plugin to the build section, creating the
// section if absent.
func (d *Document) AddPlugin(p *Plugin) {
	if d.Project.Build == nil {
		d.Project.Build = &Build{}
	}
	d.Project.Build.Plugins = append(d.Project.Build.Plugins, *p)
}

// FindDependency returns the project dependency matching the identity
// exactly, or nil.
func (d *Document) FindDependency(groupID, artifactID string) *Dependency {
	if d.Project == nil {
		return nil
	}
	deps := d.Project.Dependencies
	for i := range deps {
		if deps[i].GroupID == groupID && deps[i].ArtifactID == artifactID {
			return &deps[i]
		}
	}
	return nil
}

// RemoveDependency detaches the project dependency with the given
// identity and returns it.
func (d *Document) RemoveDependency(groupID, artifactID string) (*Dependency, bool) {
	if d.Project == nil {
		return nil, false
	}
	deps := d.Project.Dependencies
	for i := range deps {
		if deps[i].GroupID == groupID && deps[i].ArtifactID == artifactID {
			detached := deps[i]
			d.Project.Dependencies = append(deps[:i:i], deps[i+1:]...)
			return &detached, true
		}
	}
	return nil, false
}

// AddDependency appends the dependency to the project dependency list.
func (d *Document) AddDependency(dep *Dependency) {
	d.Project.Dependencies = append(d.Project.Dependencies, *dep)
}

// GetProperty returns the value of a <properties> entry.
func (d *Document) GetProperty(name string) (string, bool) {
	if d.Project == nil || d.Project.Properties == nil {
		return "", false
	}
	return d.Project.Properties.Get(name)
}

// SetProperty sets a <properties> entry, creating the block if absent.
func (d *Document) SetProperty(name, value string) {
	if d.Project.Properties == nil {
		d.Project.Properties = &Properties{}
	}
	d.Project.Properties.Set(name, value)
}

// RemoveProperty deletes a <properties> entry, reporting whether it was
// present.
func (d *Document) RemoveProperty(name string) bool {
	if d.Project == nil || d.Project.Properties == nil {
		return false
	}
	return d.Project.Properties.Remove(name)
}

// Discover walks root and returns the relative paths of all pom.xml
// files in sorted order. Build output and hidden directories are
// skipped.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != root && (name == "target" || strings.HasPrefix(name, ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Name() == "pom.xml" {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering POM files under %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
