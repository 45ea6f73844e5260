// Package config reads the profile file naming connection targets.
//
// The file is YAML; its shape is validated against an embedded CUE
// schema before anything is unmarshalled, so a malformed profile is
// rejected with positions instead of half-applied.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/rel"
)

//go:embed schema.cue
var schemaCUE string

// Target is one named connection destination.
type Target struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
}

// Config is a parsed profile file.
type Config struct {
	Targets map[string]Target `yaml:"targets"`
}

// Load reads and validates the profile file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates raw profile bytes. The filename only labels
// positions in validation errors.
func Parse(data []byte, filename string) (*Config, error) {
	if err := validateSchema(data, filename); err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// The schema already constrains dialect names; resolving here keeps
	// the registry the single authority on what is supported.
	for name, t := range cfg.Targets {
		if _, err := dialect.Resolve(t.Dialect); err != nil {
			return nil, fmt.Errorf("target %s: %w", name, err)
		}
	}
	return &cfg, nil
}

// Resolve looks up a named target together with its dialect profile.
func (c *Config) Resolve(name string) (Target, dialect.Profile, error) {
	t, ok := c.Targets[name]
	if !ok {
		return Target{}, dialect.Profile{}, rel.NewConfigError(
			"unknown target '%s' (have: %s)", name, strings.Join(c.Names(), ", "))
	}
	prof, err := dialect.Resolve(t.Dialect)
	if err != nil {
		return Target{}, dialect.Profile{}, err
	}
	return t, prof, nil
}

// Names lists the configured target names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateSchema unifies the YAML document with the embedded schema.
func validateSchema(data []byte, filename string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return rel.NewConfigError("invalid config: %v", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return rel.NewConfigError("invalid config: %v", err)
	}
	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return rel.NewConfigError("invalid config: %s",
			strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}
