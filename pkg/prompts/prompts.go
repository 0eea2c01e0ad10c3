// Package prompts is the versioned catalog of system prompts. Prompt text
// is configuration: the pipeline only relies on the output shape each
// prompt mandates.
package prompts

import (
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

type Name string

const (
	Extractor       Name = "extractor"
	PersonExtractor Name = "person_extractor"
	Planner         Name = "planner"
)

type Catalog struct {
	prompts map[Name]map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{prompts: map[Name]map[string]string{}}
}

// DefaultCatalog returns the catalog with all built-in prompt versions
// registered.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register(Extractor, "v1", extractorV1)
	c.Register(Extractor, "v2", extractorV2)
	c.Register(PersonExtractor, "v1", personExtractorV1)
	c.Register(Planner, "v1", plannerV1)
	c.Register(Planner, "v2", plannerV2)
	return c
}

func (c *Catalog) Register(name Name, version, text string) {
	if c.prompts[name] == nil {
		c.prompts[name] = map[string]string{}
	}
	c.prompts[name][version] = text
}

// Get returns the prompt text for a registered (name, version) pair.
func (c *Catalog) Get(name Name, version string) (string, error) {
	versions, ok := c.prompts[name]
	if !ok {
		return "", errors.Errorf("unknown prompt name: %s", name)
	}
	text, ok := versions[version]
	if !ok {
		return "", errors.Errorf("unknown version %s for prompt %s", version, name)
	}
	return text, nil
}

// Latest returns the highest registered version for a prompt, so "v10"
// sorts after "v2".
func (c *Catalog) Latest(name Name) (string, error) {
	versions := c.Versions(name)
	if len(versions) == 0 {
		return "", errors.Errorf("unknown prompt name: %s", name)
	}
	return versions[len(versions)-1], nil
}

// Versions lists registered versions for a prompt in ascending order.
func (c *Catalog) Versions(name Name) []string {
	raw := make([]string, 0, len(c.prompts[name]))
	for v := range c.prompts[name] {
		raw = append(raw, v)
	}

	parsed := make([]*goversion.Version, 0, len(raw))
	unparsed := []string{}
	for _, v := range raw {
		pv, err := goversion.NewVersion(v)
		if err != nil {
			unparsed = append(unparsed, v)
			continue
		}
		parsed = append(parsed, pv)
	}
	sort.Sort(goversion.Collection(parsed))
	sort.Strings(unparsed)

	out := make([]string, 0, len(raw))
	for _, pv := range parsed {
		out = append(out, pv.Original())
	}
	return append(out, unparsed...)
}
