// Package format implements the two serialization operations of spec.md
// §4.2/§6: Serialize, a lossless reconstruction of a parsed Notebook back
// to WOOFNB text, and Format, the canonical reordering used by `woof fmt`.
//
// Grounded on the teacher's internal/trace canonical-JSON approach
// (explicit, hand-written field ordering rather than relying on struct
// tag order) applied here to a text format instead of JSON.
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/woofnb/woofnb/internal/model"
)

// canonicalCellKeys is the fixed emission order for known cell tokens.
// Unknown tokens are appended afterward in lexicographic order.
var canonicalCellKeys = []string{
	"id", "type", "name", "lang", "deps", "tags", "sidefx",
	"timeout", "memory_mb", "retries", "priority", "disabled",
}

// Serialize reconstructs WOOFNB source text from a Notebook, reproducing
// the header and every cell's tokens and body verbatim. Serialize(Parse(x))
// == x whenever x used a single trailing newline convention between blocks
// (spec.md §8, round-trip property).
func Serialize(nb *model.Notebook) string {
	var b strings.Builder
	b.WriteString(nb.Header.Raw)
	b.WriteByte('\n')
	for _, c := range nb.Cells {
		writeCellBlock(&b, c.HeaderTokensRaw, c.Body)
	}
	return b.String()
}

func writeCellBlock(b *strings.Builder, tokensRaw, body string) {
	b.WriteString("```cell")
	if tokensRaw != "" {
		b.WriteByte(' ')
		b.WriteString(tokensRaw)
	}
	b.WriteByte('\n')
	if body != "" {
		b.WriteString(body)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
}

// Format produces the canonical form used by `woof fmt`: header keys in
// spec.md §6's fixed order (with any remaining keys sorted
// lexicographically), and cell tokens in canonicalCellKeys order followed
// by sorted unknown tokens. Format is idempotent: Format(Format(x)) ==
// Format(x).
func Format(nb *model.Notebook) (string, error) {
	headerText, err := formatHeader(nb.Header)
	if err != nil {
		return "", fmt.Errorf("formatting header: %w", err)
	}

	var b strings.Builder
	b.WriteString(headerText)
	b.WriteByte('\n')
	for _, c := range nb.Cells {
		tokens := formatCellTokens(c)
		writeCellBlock(&b, tokens, c.Body)
	}
	return b.String(), nil
}

func formatHeader(h model.Header) (string, error) {
	magic := h.MagicVersion
	if magic == "" {
		magic = "1.0"
	}

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	addYAML := func(key string, val any) {
		if val == nil {
			return
		}
		kn := &yaml.Node{}
		if err := kn.Encode(key); err != nil {
			return
		}
		vn := &yaml.Node{}
		if err := vn.Encode(val); err != nil {
			return
		}
		node.Content = append(node.Content, kn, vn)
	}

	if h.Name != "" {
		addYAML("name", h.Name)
	}
	if h.Language != "" {
		addYAML("language", h.Language)
	}
	if h.Env.InterpreterVersion != "" || len(h.Env.Requirements) > 0 || h.Env.Container != nil {
		addYAML("env", h.Env)
	}
	if len(h.Parameters) > 0 {
		addYAML("parameters", sortedMap(h.Parameters))
	}
	if h.Defaults.TimeoutSec != nil || h.Defaults.MemoryMB != nil {
		addYAML("defaults", h.Defaults)
	}
	if (h.Execution.Order != "" && h.Execution.Order != model.OrderLinear) || (h.Execution.Cache != "" && h.Execution.Cache != model.CacheNone) {
		addYAML("execution", h.Execution)
	}
	if h.IOPolicy != (model.IOPolicy{}) {
		addYAML("io_policy", h.IOPolicy)
	}
	if h.Provenance != nil {
		addYAML("provenance", h.Provenance)
	}
	if h.Metadata != nil {
		addYAML("metadata", h.Metadata)
	}
	if len(h.Tags) > 0 {
		addYAML("tags", h.Tags)
	}
	if h.Version != "" {
		addYAML("version", h.Version)
	}
	extraKeys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		addYAML(k, h.Extra[k])
	}

	var body string
	if len(node.Content) > 0 {
		out, err := yaml.Marshal(node)
		if err != nil {
			return "", err
		}
		body = strings.TrimRight(string(out), "\n")
	}

	if body == "" {
		return "%WOOFNB " + magic, nil
	}
	return "%WOOFNB " + magic + "\n" + body, nil
}

// sortedMap is a yaml.v3 MapSlice-free trick: yaml.v3 marshals Go maps
// with sorted keys already, so this is a documented no-op kept for
// readability at the call site above.
func sortedMap(m map[string]any) map[string]any { return m }

func formatCellTokens(c model.Cell) string {
	var parts []string
	emit := func(key, val string) {
		parts = append(parts, formatToken(key, val))
	}

	for _, key := range canonicalCellKeys {
		switch key {
		case "id":
			if c.ID != "" {
				emit("id", c.ID)
			}
		case "type":
			if c.Type != "" {
				emit("type", string(c.Type))
			}
		case "name":
			if c.Name != "" {
				emit("name", c.Name)
			}
		case "lang":
			if c.Lang != "" {
				emit("lang", c.Lang)
			}
		case "deps":
			if len(c.Deps) > 0 {
				emit("deps", strings.Join(c.Deps, ","))
			}
		case "tags":
			if len(c.Tags) > 0 {
				emit("tags", strings.Join(c.Tags, ","))
			}
		case "sidefx":
			if c.SideFX != "" && c.SideFX != model.SideFXNone {
				emit("sidefx", string(c.SideFX))
			}
		case "timeout":
			if c.TimeoutSec != nil {
				emit("timeout", strconv.Itoa(*c.TimeoutSec))
			}
		case "memory_mb":
			if c.MemoryMB != nil {
				emit("memory_mb", strconv.Itoa(*c.MemoryMB))
			}
		case "retries":
			if c.Retries != 0 {
				emit("retries", strconv.Itoa(c.Retries))
			}
		case "priority":
			if c.Priority != 0 {
				emit("priority", strconv.Itoa(c.Priority))
			}
		case "disabled":
			if c.Disabled {
				emit("disabled", "true")
			}
		}
	}

	unknownKeys := make([]string, 0, len(c.UnknownTokens))
	for k := range c.UnknownTokens {
		unknownKeys = append(unknownKeys, k)
	}
	sort.Strings(unknownKeys)
	for _, k := range unknownKeys {
		emit(k, c.UnknownTokens[k])
	}

	return strings.Join(parts, " ")
}

func formatToken(key, val string) string {
	if val == "true" && needsBareForm(key) {
		return key
	}
	if !needsQuoting(val) {
		return key + "=" + val
	}
	return key + "=\"" + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(val) + "\""
}

func needsBareForm(key string) bool { return key == "disabled" }

func needsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		if !isBareValueChar(v[i]) {
			return true
		}
	}
	return v == ""
}

func isBareValueChar(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '_', '-', '.', ',', ':', '/', '@':
		return true
	}
	return false
}
