// Package pom models Maven POM documents and the build-section edits
// the transformation operations need.
package pom

import (
	"encoding/xml"
	"io"
	"strings"
)

// Project is the root <project> element of a POM file. Only the parts
// the transformation operations touch are modeled explicitly; the rest
// of the document is out of scope for this tool.
type Project struct {
	XMLName      xml.Name     `xml:"project"`
	Attrs        []xml.Attr   `xml:",any,attr"`
	ModelVersion string       `xml:"modelVersion,omitempty"`
	Parent       *Parent      `xml:"parent,omitempty"`
	GroupID      string       `xml:"groupId,omitempty"`
	ArtifactID   string       `xml:"artifactId,omitempty"`
	Version      string       `xml:"version,omitempty"`
	Packaging    string       `xml:"packaging,omitempty"`
	Name         string       `xml:"name,omitempty"`
	Modules      []string     `xml:"modules>module,omitempty"`
	Properties   *Properties  `xml:"properties,omitempty"`
	Dependencies []Dependency `xml:"dependencies>dependency,omitempty"`
	Build        *Build       `xml:"build,omitempty"`
}

// Parent references the parent POM of a module.
type Parent struct {
	GroupID      string `xml:"groupId,omitempty"`
	ArtifactID   string `xml:"artifactId,omitempty"`
	Version      string `xml:"version,omitempty"`
	RelativePath string `xml:"relativePath,omitempty"`
}

// Build is the <build> section holding the plugin list.
type Build struct {
	FinalName string   `xml:"finalName,omitempty"`
	Plugins   []Plugin `xml:"plugins>plugin,omitempty"`
}

// Plugin is a build plugin declaration. The (GroupID, ArtifactID) pair
// is the plugin's identity; operations never change it.
type Plugin struct {
	GroupID       string            `xml:"groupId,omitempty"`
	ArtifactID    string            `xml:"artifactId,omitempty"`
	Version       string            `xml:"version,omitempty"`
	Extensions    string            `xml:"extensions,omitempty"`
	Executions    []PluginExecution `xml:"executions>execution,omitempty"`
	Dependencies  []Dependency      `xml:"dependencies>dependency,omitempty"`
	Goals         *Goals            `xml:"goals,omitempty"`
	Inherited     string            `xml:"inherited,omitempty"`
	Configuration *ConfigNode       `xml:"configuration,omitempty"`
}

// PluginExecution binds plugin goals to a lifecycle phase. The ID may be
// empty; Maven treats a missing id as the default execution.
type PluginExecution struct {
	ID            string      `xml:"id,omitempty"`
	Phase         string      `xml:"phase,omitempty"`
	Goals         []string    `xml:"goals>goal,omitempty"`
	Inherited     string      `xml:"inherited,omitempty"`
	Configuration *ConfigNode `xml:"configuration,omitempty"`
}

// Dependency is a dependency declaration, used both at project level and
// inside plugin declarations.
type Dependency struct {
	GroupID    string      `xml:"groupId,omitempty"`
	ArtifactID string      `xml:"artifactId,omitempty"`
	Version    string      `xml:"version,omitempty"`
	Type       string      `xml:"type,omitempty"`
	Classifier string      `xml:"classifier,omitempty"`
	Scope      string      `xml:"scope,omitempty"`
	Optional   string      `xml:"optional,omitempty"`
	Exclusions []Exclusion `xml:"exclusions>exclusion,omitempty"`
}

// Exclusion excludes a transitive dependency.
type Exclusion struct {
	GroupID    string `xml:"groupId,omitempty"`
	ArtifactID string `xml:"artifactId,omitempty"`
}

// ConfigNode is an arbitrary configuration element. Maven configuration
// blocks are free-form XML, so the node keeps its name, attributes, text
// and children without interpreting them.
type ConfigNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Value    string       `xml:",chardata"`
	Children []ConfigNode `xml:",any"`
}

// Goals is a plugin-level <goals> block. The block either parses into a
// list of goal elements or, when it holds markup this model does not
// recognize as elements, is carried through verbatim in Raw.
type Goals struct {
	Nodes []ConfigNode
	Raw   string
}

// GoalList builds a structured Goals value from plain goal names.
func GoalList(names ...string) *Goals {
	g := &Goals{}
	for _, name := range names {
		g.Nodes = append(g.Nodes, ConfigNode{
			XMLName: xml.Name{Local: "goal"},
			Value:   name,
		})
	}
	return g
}

// UnmarshalXML reads the inner markup of the <goals> block. Element
// content becomes Nodes; anything else is preserved in Raw.
func (g *Goals) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var payload struct {
		Inner string `xml:",innerxml"`
	}
	if err := d.DecodeElement(&payload, &start); err != nil {
		return err
	}

	var wrapper struct {
		Text     string       `xml:",chardata"`
		Children []ConfigNode `xml:",any"`
	}
	dec := xml.NewDecoder(strings.NewReader("<goals>" + payload.Inner + "</goals>"))
	if err := dec.Decode(&wrapper); err == nil &&
		len(wrapper.Children) > 0 && strings.TrimSpace(wrapper.Text) == "" {
		g.Nodes = wrapper.Children
		g.Raw = ""
		return nil
	}

	g.Nodes = nil
	g.Raw = strings.TrimSpace(payload.Inner)
	return nil
}

// MarshalXML writes the block back out, replaying raw markup token by
// token when no structured form is available.
func (g Goals) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if len(g.Nodes) > 0 {
		for _, n := range g.Nodes {
			if err := e.Encode(n); err != nil {
				return err
			}
		}
	} else if g.Raw != "" {
		dec := xml.NewDecoder(strings.NewReader(g.Raw))
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := e.EncodeToken(xml.CopyToken(tok)); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

// Properties is the <properties> block. Entry order is preserved across
// parse and serialize.
type Properties struct {
	Entries []Property
}

// Property is a single named property.
type Property struct {
	Name  string
	Value string
}

// Get returns the value of the named property.
func (p *Properties) Get(name string) (string, bool) {
	for _, entry := range p.Entries {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return "", false
}

// Set updates the named property in place or appends it.
func (p *Properties) Set(name, value string) {
	for i := range p.Entries {
		if p.Entries[i].Name == name {
			p.Entries[i].Value = value
			return
		}
	}
	p.Entries = append(p.Entries, Property{Name: name, Value: value})
}

// Remove deletes the named property, reporting whether it was present.
func (p *Properties) Remove(name string) bool {
	for i := range p.Entries {
		if p.Entries[i].Name == name {
			p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// UnmarshalXML reads property entries in document order.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.Entries = nil
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			p.Entries = append(p.Entries, Property{Name: t.Name.Local, Value: value})
		case xml.EndElement:
			return nil
		}
	}
}

// MarshalXML writes property entries in their recorded order.
func (p Properties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, entry := range p.Entries {
		elem := xml.StartElement{Name: xml.Name{Local: entry.Name}}
		if err := e.EncodeElement(entry.Value, elem); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}
