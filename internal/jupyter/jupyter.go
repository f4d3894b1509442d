// Package jupyter converts between WOOFNB notebooks and Jupyter nbformat
// v4 (SPEC_FULL.md §10 supplement): `woof export` / `woof import`.
//
// Grounded on original_source/src/woofnb/jupyter.py's
// woof_to_ipynb_dict/ipynb_dict_to_woof: `md` cells become Jupyter
// `markdown` cells, `code` cells become `code` cells, and every other
// WOOFNB cell type round-trips through Jupyter's `raw` cell type with
// its original type stashed in cell.metadata.woofnb.type so Import can
// restore it. The original's own CLI never wires this up (its
// `export`/`import` subcommands are stubs); this package is the real
// implementation, reachable from cmd/woof.
package jupyter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/woofnb/woofnb/internal/format"
	"github.com/woofnb/woofnb/internal/model"
)

const magicVersion = "1.0"

type nbDocument struct {
	NBFormat      int        `json:"nbformat"`
	NBFormatMinor int        `json:"nbformat_minor"`
	Metadata      nbMetadata `json:"metadata"`
	Cells         []nbCell   `json:"cells"`
}

type nbMetadata struct {
	KernelSpec   nbKernelSpec `json:"kernelspec"`
	LanguageInfo nbLangInfo   `json:"language_info"`
	WoofNB       nbDocMeta    `json:"woofnb"`
}

type nbKernelSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}

type nbLangInfo struct {
	Name string `json:"name"`
}

type nbDocMeta struct {
	MagicVersion string `json:"magic_version"`
}

type nbCell struct {
	CellType       string     `json:"cell_type"`
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Outputs        []any      `json:"outputs,omitempty"`
	ExecutionCount *int       `json:"execution_count,omitempty"`
	Metadata       nbCellMeta `json:"metadata"`
}

type nbCellMeta struct {
	WoofNB nbCellWoofMeta `json:"woofnb"`
	Tags   []string       `json:"tags,omitempty"`
}

type nbCellWoofMeta struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	MappedFromType string `json:"mapped_from_type,omitempty"`
}

// ExportIpynb renders nb as Jupyter nbformat v4 JSON text.
func ExportIpynb(nb *model.Notebook) (string, error) {
	language := nb.Header.Language
	if language == "" {
		language = "python"
	}
	name := nb.Header.Name
	if name == "" {
		name = language
	}

	doc := nbDocument{
		NBFormat:      4,
		NBFormatMinor: 5,
		Metadata: nbMetadata{
			KernelSpec:   nbKernelSpec{Name: language, DisplayName: name, Language: language},
			LanguageInfo: nbLangInfo{Name: language},
			WoofNB:       nbDocMeta{MagicVersion: "WOOFNB " + magicVersion},
		},
		Cells: make([]nbCell, len(nb.Cells)),
	}

	for i, c := range nb.Cells {
		doc.Cells[i] = exportCell(c)
	}

	out, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return "", fmt.Errorf("jupyter: encoding ipynb: %w", err)
	}
	return string(out) + "\n", nil
}

func exportCell(c model.Cell) nbCell {
	source := c.Body
	if source != "" && !strings.HasSuffix(source, "\n") {
		source += "\n"
	}

	meta := nbCellMeta{WoofNB: nbCellWoofMeta{ID: c.ID, Type: string(c.Type)}, Tags: c.Tags}

	switch c.Type {
	case model.CellMD:
		return nbCell{CellType: "markdown", ID: c.ID, Source: source, Metadata: meta}
	case model.CellCode:
		return nbCell{CellType: "code", ID: c.ID, Source: source, Outputs: []any{}, Metadata: meta}
	default:
		meta.WoofNB.MappedFromType = string(c.Type)
		return nbCell{CellType: "raw", ID: c.ID, Source: source, Metadata: meta}
	}
}

// ImportIpynb parses Jupyter nbformat v4 JSON text into a Notebook and
// renders it back to canonical WOOFNB source text.
func ImportIpynb(text string) (string, error) {
	var doc nbDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", fmt.Errorf("jupyter: decoding ipynb: %w", err)
	}

	language := doc.Metadata.KernelSpec.Language
	if language == "" {
		language = doc.Metadata.KernelSpec.Name
	}
	if language == "" {
		language = "python"
	}
	name := doc.Metadata.KernelSpec.DisplayName

	nb := &model.Notebook{
		Header: model.Header{
			MagicVersion: magicVersion,
			Name:         name,
			Language:     language,
		},
	}

	counters := map[model.CellType]int{}
	genID := func(t model.CellType) string {
		counters[t]++
		return fmt.Sprintf("%s%d", t, counters[t])
	}

	for _, jc := range doc.Cells {
		cellType := importCellType(jc)
		id := jc.ID
		if id == "" {
			id = jc.Metadata.WoofNB.ID
		}
		if id == "" {
			id = genID(cellType)
		}

		nb.Cells = append(nb.Cells, model.Cell{
			ID:   id,
			Type: cellType,
			Body: strings.TrimRight(jc.Source, "\n"),
			Tags: jc.Metadata.Tags,
		})
	}

	return format.Format(nb)
}

func importCellType(jc nbCell) model.CellType {
	var t model.CellType
	switch jc.CellType {
	case "markdown":
		t = model.CellMD
	case "code":
		t = model.CellCode
	default:
		t = model.CellRaw
	}
	// Restore the original WOOFNB type if this cell round-tripped through
	// a prior Export: raw cells carry it in mapped_from_type, markdown
	// and code cells carry it verbatim in woofnb.type.
	if orig := jc.Metadata.WoofNB.MappedFromType; orig != "" {
		return model.CellType(orig)
	}
	if orig := jc.Metadata.WoofNB.Type; orig != "" {
		return model.CellType(orig)
	}
	return t
}
