// Package cache implements the WOOFNB content-hash cache (spec.md §4.5):
// key computation over a cell's content and its transitive dependency
// content, and a `.woof-cache/<stem>/<cell-id>.json` file store.
//
// Key grounds its length-prefixed hashing directly on
// internal/core.TaskHasher.ComputeHash: the runner version, the cell's
// type/lang/body, and the env and parameter encodings are each written
// with an explicit 8-byte length. Dependency ids and bodies are written
// NUL-terminated instead, without a length prefix.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/woofnb/woofnb/internal/model"
)

// cacheKeyPrefix is component 1 of spec.md §4.5's key definition.
const cacheKeyPrefix = "woofnb-cache-v1\x00"

// Key computes the cache key for a cell: a pure function of the runner
// version, the cell's own type/lang/body, the bodies of its transitive
// dependencies in topological order, and the notebook's env/parameters.
// Nothing about a prior run (elapsed time, exit code, wall clock)
// participates.
func Key(nb *model.Notebook, cellID string, runnerVersion string) (string, error) {
	byID := make(map[string]model.Cell, len(nb.Cells))
	for _, c := range nb.Cells {
		byID[c.ID] = c
	}
	cell, ok := byID[cellID]
	if !ok {
		return "", fmt.Errorf("cache.Key: unknown cell %q", cellID)
	}

	depIDs := transitiveDepsTopological(byID, cellID)

	lang := cell.Lang
	if lang == "" {
		lang = nb.Header.Language
	}

	hasher := sha256.New()
	hasher.Write([]byte(cacheKeyPrefix))

	writeField := func(data []byte) {
		var lb [8]byte
		n := uint64(len(data))
		for i := 0; i < 8; i++ {
			lb[7-i] = byte(n >> (8 * i))
		}
		hasher.Write(lb[:])
		hasher.Write(data)
	}

	writeField([]byte(runnerVersion))

	writeField([]byte(cell.Type))
	writeField([]byte(lang))
	writeField([]byte(cell.Body))

	for _, id := range depIDs {
		hasher.Write([]byte(id))
		hasher.Write([]byte{0})
		hasher.Write([]byte(byID[id].Body))
		hasher.Write([]byte{0})
	}

	envBytes, err := json.Marshal(nb.Header.Env)
	if err != nil {
		return "", fmt.Errorf("cache.Key: encoding env: %w", err)
	}
	writeField(envBytes)

	paramBytes, err := json.Marshal(nb.Header.Parameters)
	if err != nil {
		return "", fmt.Errorf("cache.Key: encoding parameters: %w", err)
	}
	writeField(paramBytes)

	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum), nil
}

// transitiveDepsTopological returns the dependency closure of id,
// excluding id itself, ordered so every dep's own deps precede it.
func transitiveDepsTopological(byID map[string]model.Cell, id string) []string {
	seen := map[string]bool{}
	var out []string
	var visit func(string)
	visit = func(cur string) {
		c, ok := byID[cur]
		if !ok {
			return
		}
		for _, d := range c.Deps {
			if seen[d] {
				continue
			}
			seen[d] = true
			visit(d)
			out = append(out, d)
		}
	}
	visit(id)
	return out
}
