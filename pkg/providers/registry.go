package providers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// registryFile represents the structure of a sources document.
type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry is the ordered, read-only table of news sources.
type Registry struct {
	providers []Provider
	idx       map[string]Provider
}

// DefaultRegistry returns the built-in source table.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultSources, ".yaml")
}

// LoadRegistry loads a sources document from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	return ParseRegistry([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
}

// ParseRegistry decodes and validates a sources document. ext selects the
// decoder (".yaml", ".yml", ".json"); an empty ext tries each in turn.
func ParseRegistry(data []byte, ext string) (*Registry, error) {
	file, err := parseRegistryFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Providers) == 0 {
		return nil, errors.New("sources file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, len(file.Providers)),
		idx:       make(map[string]Provider, len(file.Providers)),
	}

	// Display names label prompt sections, so they must not repeat within a strategy.
	names := make(map[string]string, len(file.Providers))
	for i := range file.Providers {
		cfg := sanitizeProvider(file.Providers[i])
		if err := validateProvider(cfg); err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", cfg.ID)
		}
		nameKey := cfg.Type + "/" + strings.ToLower(cfg.DisplayName())
		if other, exists := names[nameKey]; exists {
			return nil, fmt.Errorf("providers %q and %q share the name %q for type %s", other, cfg.ID, cfg.DisplayName(), cfg.Type)
		}
		names[nameKey] = cfg.ID
		reg.providers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err == nil {
			return file, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

// sanitizeProvider trims and normalizes the provider fields.
func sanitizeProvider(cfg Provider) Provider {
	cfg.ID = strings.ToLower(strings.TrimSpace(cfg.ID))
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.SourceURL = strings.TrimSpace(cfg.SourceURL)
	cfg.Selector.Tag = strings.ToLower(strings.TrimSpace(cfg.Selector.Tag))

	if len(cfg.Selector.Attrs) > 0 {
		attrs := make(map[string]string, len(cfg.Selector.Attrs))
		for k, v := range cfg.Selector.Attrs {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				attrs[k] = strings.TrimSpace(v)
			}
		}
		cfg.Selector.Attrs = attrs
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	return cfg
}

// validateProvider checks that required fields are present.
func validateProvider(cfg Provider) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", cfg.ID)
	}
	switch cfg.Type {
	case ProviderTypeMarkup:
		if cfg.Selector.Tag == "" {
			return fmt.Errorf("selector.tag is required for markup provider %q", cfg.ID)
		}
	case ProviderTypeFeed:
	case "":
		return fmt.Errorf("type is required for provider %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for provider %q", cfg.Type, cfg.ID)
	}
	return nil
}

// All returns every provider in registry order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByType returns the providers of one strategy type, in registry order.
func (r *Registry) ByType(typ string) []Provider {
	if r == nil {
		return nil
	}
	typ = strings.ToLower(strings.TrimSpace(typ))
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Type == typ {
			out = append(out, p)
		}
	}
	return out
}

// ByID returns the provider with the given id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	p, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}
