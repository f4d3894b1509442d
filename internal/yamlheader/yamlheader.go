// Package yamlheader is the header's YAML collaborator (spec.md §1, §4.1):
// it decodes the YAML portion of a notebook's header (everything after the
// %WOOFNB magic line) into the typed model.Header fields, leaving any key
// it does not recognize in Header.Extra for the formatter to re-emit
// losslessly.
//
// Grounded on theRebelliousNerd-codenerd's use of gopkg.in/yaml.v3 as the
// YAML collaborator throughout its config loading.
package yamlheader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/woofnb/woofnb/internal/model"
)

// knownKeys are the top-level header keys with dedicated model.Header
// fields. Everything else lands in Extra.
var knownKeys = map[string]bool{
	"name": true, "language": true, "env": true, "parameters": true,
	"defaults": true, "execution": true, "io_policy": true,
	"provenance": true, "metadata": true, "tags": true, "version": true,
}

type rawHeader struct {
	Name       string                 `yaml:"name"`
	Language   string                 `yaml:"language"`
	Env        model.EnvConfig        `yaml:"env"`
	Parameters map[string]any         `yaml:"parameters"`
	Defaults   model.DefaultsConfig   `yaml:"defaults"`
	Execution  model.ExecutionConfig  `yaml:"execution"`
	IOPolicy   model.IOPolicy         `yaml:"io_policy"`
	Provenance any                    `yaml:"provenance"`
	Metadata   any                    `yaml:"metadata"`
	Tags       []string               `yaml:"tags"`
	Version    string                 `yaml:"version"`
}

// Parse decodes the YAML portion of a header (the text after the magic
// line) into a partially-populated model.Header. Callers set Raw and
// MagicVersion separately since those come from the magic line, not the
// YAML body.
func Parse(yamlText string) (model.Header, error) {
	h := model.Header{
		Execution: model.ExecutionConfig{Order: model.OrderLinear, Cache: model.CacheNone},
	}

	if strings.TrimSpace(yamlText) == "" {
		return h, nil
	}

	var generic map[string]any
	if err := yaml.Unmarshal([]byte(yamlText), &generic); err != nil {
		return model.Header{}, fmt.Errorf("parsing header yaml: %w", err)
	}

	var raw rawHeader
	if err := yaml.Unmarshal([]byte(yamlText), &raw); err != nil {
		return model.Header{}, fmt.Errorf("parsing header yaml: %w", err)
	}

	h.Name = raw.Name
	h.Language = raw.Language
	h.Env = raw.Env
	h.Parameters = raw.Parameters
	h.Provenance = raw.Provenance
	h.Metadata = raw.Metadata
	h.Tags = raw.Tags
	h.Version = raw.Version
	h.IOPolicy = raw.IOPolicy

	if raw.Defaults.TimeoutSec != nil || raw.Defaults.MemoryMB != nil {
		h.Defaults = raw.Defaults
	}

	if raw.Execution.Order != "" {
		h.Execution.Order = raw.Execution.Order
	}
	if raw.Execution.Cache != "" {
		h.Execution.Cache = raw.Execution.Cache
	}

	extra := map[string]any{}
	for k, v := range generic {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		h.Extra = extra
	}

	return h, nil
}
