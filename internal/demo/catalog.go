package demo

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Verdict is the analysis outcome shown for a document.
type Verdict string

const (
	Authentic Verdict = "authentic"
	Fraud     Verdict = "fraud"
	Suspect   Verdict = "suspect"
)

// Flagged reports whether the verdict highlights a zone.
func (v Verdict) Flagged() bool {
	return v == Fraud || v == Suspect
}

// Scene is the content shown during one loop of a demo. Labels arrive
// already localised.
type Scene struct {
	Name       string  `yaml:"name"`
	Verdict    Verdict `yaml:"verdict"`
	Alert      string  `yaml:"alert"`
	Confidence float64 `yaml:"confidence"`
	Zone       Zone    `yaml:"zone,omitempty"`
}

// Catalog is the rotating list of scenes.
type Catalog struct {
	Scenes []Scene `yaml:"scenes"`
}

// At returns the scene for loop number n.
func (c *Catalog) At(n int) Scene {
	if len(c.Scenes) == 0 {
		return Scene{}
	}
	i := n % len(c.Scenes)
	if i < 0 {
		i += len(c.Scenes)
	}
	return c.Scenes[i]
}

// Len returns the number of scenes.
func (c *Catalog) Len() int { return len(c.Scenes) }

// DefaultCatalog returns the built-in catalog of demo documents.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("demo: invalid built-in catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if len(c.Scenes) == 0 {
		return nil, fmt.Errorf("catalog has no scenes")
	}
	for i, s := range c.Scenes {
		if s.Name == "" {
			return nil, fmt.Errorf("scene %d has no name", i)
		}
		switch s.Verdict {
		case Authentic, Fraud, Suspect:
		default:
			return nil, fmt.Errorf("scene %d (%s): unknown verdict %q", i, s.Name, s.Verdict)
		}
		c.Scenes[i].Zone = s.Zone.Clamp()
	}
	return &c, nil
}
