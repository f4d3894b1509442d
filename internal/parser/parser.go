// Package parser implements the WOOFNB line-oriented scanner (spec.md
// §4.1): magic-line detection, verbatim header capture, and fenced cell
// tokenization. Parsing never fails on missing header keys or unknown
// cell attributes — those are the linter's job (internal/lint); the
// parser only rejects structurally broken input.
package parser

import (
	"strconv"
	"strings"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
	"github.com/woofnb/woofnb/internal/yamlheader"
)

const magicPrefix = "%WOOFNB"

// knownCellKeys maps a recognized token key onto the Cell struct.
var knownCellKeys = map[string]bool{
	"id": true, "type": true, "name": true, "lang": true, "deps": true,
	"tags": true, "sidefx": true, "timeout": true, "memory_mb": true,
	"retries": true, "priority": true, "disabled": true,
}

// Parse turns raw notebook source into a model.Notebook. Structural
// errors are returned as *woofterr.Error; a header whose YAML cannot be
// decoded returns yamlheader.Parse's error unchanged.
func Parse(src string) (*model.Notebook, error) {
	lines := strings.Split(src, "\n")

	magicIdx, version := findMagic(lines)
	if magicIdx == -1 {
		return nil, woofterr.New(woofterr.KindMissingMagic, "no %WOOFNB magic line found")
	}
	major, err := majorVersion(version)
	if err != nil || major != 1 {
		return nil, woofterr.Atf(woofterr.KindUnsupportedVersion, magicIdx+1, "unsupported version %q", version)
	}

	fenceIdx := -1
	for i := magicIdx + 1; i < len(lines); i++ {
		if isCellFenceOpen(strings.TrimLeft(lines[i], " \t")) {
			fenceIdx = i
			break
		}
	}
	headerEnd := len(lines)
	if fenceIdx != -1 {
		headerEnd = fenceIdx
	}

	headerLines := lines[magicIdx:headerEnd]
	headerText := strings.Join(headerLines, "\n")

	yamlBody := ""
	if len(headerLines) > 1 {
		yamlBody = strings.Join(headerLines[1:], "\n")
	}
	header, err := yamlheader.Parse(yamlBody)
	if err != nil {
		return nil, err
	}
	header.Raw = headerText
	header.MagicVersion = version

	nb := &model.Notebook{Header: header}

	i := fenceIdx
	for i != -1 && i < len(lines) {
		cell, next, err := parseCell(lines, i)
		if err != nil {
			return nil, err
		}
		nb.Cells = append(nb.Cells, cell)

		i = next
		found := -1
		for j := i; j < len(lines); j++ {
			if isCellFenceOpen(strings.TrimLeft(lines[j], " \t")) {
				found = j
				break
			}
		}
		i = found
	}

	return nb, nil
}

func findMagic(lines []string) (int, string) {
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, magicPrefix) {
			return i, strings.TrimSpace(strings.TrimPrefix(t, magicPrefix))
		}
	}
	return -1, ""
}

func majorVersion(v string) (int, error) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(parts[0])
}

// isCellFenceOpen reports whether a left-trimmed line opens a cell fence:
// it begins with "```cell" followed by whitespace or end-of-line.
func isCellFenceOpen(trimmed string) bool {
	const p = "```cell"
	if !strings.HasPrefix(trimmed, p) {
		return false
	}
	rest := trimmed[len(p):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// isCellFenceClose reports whether a left-trimmed line is exactly the
// closing fence.
func isCellFenceClose(trimmed string) bool {
	return trimmed == "```"
}

func parseCell(lines []string, fenceLine int) (model.Cell, int, error) {
	trimmed := strings.TrimLeft(lines[fenceLine], " \t")
	rest := strings.TrimSpace(trimmed[len("```cell"):])

	tokens, err := tokenizeCellHeader(rest, fenceLine+1)
	if err != nil {
		return model.Cell{}, 0, err
	}

	cell := model.Cell{
		Type:            model.CellCode,
		HeaderTokensRaw: rest,
		UnknownTokens:   map[string]string{},
	}

	for _, tok := range tokens {
		if !knownCellKeys[tok.Key] {
			cell.UnknownTokens[tok.Key] = tok.Value
			continue
		}
		switch tok.Key {
		case "id":
			cell.ID = tok.Value
		case "type":
			cell.Type = model.CellType(tok.Value)
		case "name":
			cell.Name = tok.Value
		case "lang":
			cell.Lang = tok.Value
		case "deps":
			cell.Deps = splitCommaList(tok.Value)
		case "tags":
			cell.Tags = splitCommaList(tok.Value)
		case "sidefx":
			cell.SideFX = model.SideFX(tok.Value)
		case "timeout":
			n, perr := strconv.Atoi(tok.Value)
			if perr != nil {
				return model.Cell{}, 0, woofterr.Atf(woofterr.KindBadTokenSyntax, fenceLine+1, "invalid timeout %q", tok.Value)
			}
			cell.TimeoutSec = &n
		case "memory_mb":
			n, perr := strconv.Atoi(tok.Value)
			if perr != nil {
				return model.Cell{}, 0, woofterr.Atf(woofterr.KindBadTokenSyntax, fenceLine+1, "invalid memory_mb %q", tok.Value)
			}
			cell.MemoryMB = &n
		case "retries":
			n, perr := strconv.Atoi(tok.Value)
			if perr != nil {
				return model.Cell{}, 0, woofterr.Atf(woofterr.KindBadTokenSyntax, fenceLine+1, "invalid retries %q", tok.Value)
			}
			cell.Retries = n
		case "priority":
			n, perr := strconv.Atoi(tok.Value)
			if perr != nil {
				return model.Cell{}, 0, woofterr.Atf(woofterr.KindBadTokenSyntax, fenceLine+1, "invalid priority %q", tok.Value)
			}
			cell.Priority = n
		case "disabled":
			cell.Disabled = tok.Value == "true"
		}
	}
	if len(cell.UnknownTokens) == 0 {
		cell.UnknownTokens = nil
	}
	if cell.SideFX == "" {
		cell.SideFX = model.SideFXNone
	}

	closeLine := -1
	for j := fenceLine + 1; j < len(lines); j++ {
		if isCellFenceClose(strings.TrimSpace(lines[j])) {
			closeLine = j
			break
		}
	}
	if closeLine == -1 {
		return model.Cell{}, 0, woofterr.Atf(woofterr.KindUnterminatedCell, fenceLine+1, "cell %q has no closing fence", cell.ID)
	}

	if closeLine > fenceLine+1 {
		cell.Body = strings.Join(lines[fenceLine+1:closeLine], "\n")
	}

	return cell, closeLine + 1, nil
}
