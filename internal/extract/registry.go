// Package extract turns fetched web documents into candidate records using
// per-source-family adapters configured in an embedded registry.
package extract

import (
	_ "embed"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultRegistryYAML []byte

// SelectorChain is an ordered list of CSS selectors tried until one matches.
type SelectorChain []string

// SourceFamily describes one scrapable publication and how to read it.
type SourceFamily struct {
	Name       string `yaml:"name"`
	Adapter    string `yaml:"adapter"` // "structured" or "generic"
	Aggressive bool   `yaml:"aggressive"`
	// URLs are the listing/index pages to fetch for this family.
	URLs []string `yaml:"urls"`
	// FeedURL, when set, is an RSS/Atom feed that expands into article URLs.
	FeedURL string `yaml:"feed_url"`
	// Selectors map field names (item, name, website, description, location)
	// to their fallback chains. Only used by the structured adapter.
	Selectors map[string]SelectorChain `yaml:"selectors"`
}

// Registry is the set of configured source families.
type Registry struct {
	Families []SourceFamily `yaml:"families"`

	// MinScore is the provisional-score cutoff handed to adapters. Zero
	// means MinAdapterScore. Set from config, not from the registry file.
	MinScore int `yaml:"-"`
}

// LoadRegistry parses the embedded source registry.
func LoadRegistry() (*Registry, error) {
	return LoadRegistryFrom(defaultRegistryYAML)
}

// LoadRegistryFrom parses a registry from raw YAML, validating that every
// family names a known adapter.
func LoadRegistryFrom(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrap(err, "extract: parse source registry")
	}
	for _, f := range reg.Families {
		if f.Name == "" {
			return nil, eris.New("extract: source family with empty name")
		}
		switch f.Adapter {
		case "structured", "generic":
		default:
			return nil, eris.Errorf("extract: family %s: unknown adapter %q", f.Name, f.Adapter)
		}
		if len(f.URLs) == 0 && f.FeedURL == "" {
			return nil, eris.Errorf("extract: family %s: no urls or feed_url", f.Name)
		}
	}
	return &reg, nil
}

// AdapterFor builds the configured adapter for a family.
func (r *Registry) AdapterFor(f SourceFamily) Adapter {
	if f.Adapter == "structured" {
		return &StructuredAdapter{Family: f, MinScore: r.MinScore}
	}
	return &GenericAdapter{Family: f, MinScore: r.MinScore}
}

// AggressiveHosts returns the hostnames of families flagged as running
// aggressive bot defenses, for fetcher pacing.
func (r *Registry) AggressiveHosts() []string {
	var out []string
	for _, f := range r.Families {
		if !f.Aggressive {
			continue
		}
		urls := f.URLs
		if f.FeedURL != "" {
			urls = append(urls, f.FeedURL)
		}
		for _, raw := range urls {
			if h := hostOf(raw); h != "" {
				out = append(out, h)
			}
		}
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}
