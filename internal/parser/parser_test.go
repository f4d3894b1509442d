package parser

import (
	"strings"
	"testing"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

func mustParse(t *testing.T, src string) *model.Notebook {
	t.Helper()
	nb, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	return nb
}

func TestParse_MinimalNotebook(t *testing.T) {
	src := "%WOOFNB 1.0\n" +
		"name: demo\n" +
		"language: python\n" +
		"```cell id=a type=code\n" +
		"print(1)\n" +
		"```\n"

	nb := mustParse(t, src)

	if nb.Header.MagicVersion != "1.0" {
		t.Fatalf("MagicVersion = %q, want 1.0", nb.Header.MagicVersion)
	}
	if nb.Header.Name != "demo" || nb.Header.Language != "python" {
		t.Fatalf("header fields = %+v", nb.Header)
	}
	if len(nb.Cells) != 1 {
		t.Fatalf("len(Cells) = %d, want 1", len(nb.Cells))
	}
	c := nb.Cells[0]
	if c.ID != "a" || c.Type != model.CellCode {
		t.Fatalf("cell = %+v", c)
	}
	if c.Body != "print(1)" {
		t.Fatalf("Body = %q", c.Body)
	}
}

func TestParse_MissingMagic(t *testing.T) {
	_, err := Parse("name: demo\n```cell id=a\n```\n")
	var werr *woofterr.Error
	if err == nil {
		t.Fatal("expected error")
	}
	if !asWoofErr(err, &werr) || werr.Kind != woofterr.KindMissingMagic {
		t.Fatalf("err = %v, want KindMissingMagic", err)
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := Parse("%WOOFNB 2.0\n```cell id=a\n```\n")
	var werr *woofterr.Error
	if !asWoofErr(err, &werr) || werr.Kind != woofterr.KindUnsupportedVersion {
		t.Fatalf("err = %v, want KindUnsupportedVersion", err)
	}
}

func TestParse_UnterminatedCell(t *testing.T) {
	_, err := Parse("%WOOFNB 1.0\n```cell id=a\nprint(1)\n")
	var werr *woofterr.Error
	if !asWoofErr(err, &werr) || werr.Kind != woofterr.KindUnterminatedCell {
		t.Fatalf("err = %v, want KindUnterminatedCell", err)
	}
}

func TestParse_DuplicateToken(t *testing.T) {
	_, err := Parse("%WOOFNB 1.0\n```cell id=a id=b\n```\n")
	var werr *woofterr.Error
	if !asWoofErr(err, &werr) || werr.Kind != woofterr.KindDuplicateToken {
		t.Fatalf("err = %v, want KindDuplicateToken", err)
	}
}

func TestParse_QuotedTokenValue(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a name=\"hello world\" deps=x,y\n```\n"
	nb := mustParse(t, src)
	c := nb.Cells[0]
	if c.Name != "hello world" {
		t.Fatalf("Name = %q", c.Name)
	}
	if len(c.Deps) != 2 || c.Deps[0] != "x" || c.Deps[1] != "y" {
		t.Fatalf("Deps = %v", c.Deps)
	}
}

func TestParse_UnknownTokenPreserved(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a color=blue\n```\n"
	nb := mustParse(t, src)
	c := nb.Cells[0]
	if c.UnknownTokens["color"] != "blue" {
		t.Fatalf("UnknownTokens = %v", c.UnknownTokens)
	}
}

func TestParse_MultipleCellsInOrder(t *testing.T) {
	src := "%WOOFNB 1.0\n" +
		"```cell id=a\nfirst\n```\n" +
		"```cell id=b deps=a\nsecond\n```\n"
	nb := mustParse(t, src)
	if len(nb.Cells) != 2 {
		t.Fatalf("len(Cells) = %d", len(nb.Cells))
	}
	if nb.Cells[1].Deps[0] != "a" {
		t.Fatalf("Deps = %v", nb.Cells[1].Deps)
	}
}

func TestParse_HeaderRawPreservedVerbatim(t *testing.T) {
	src := "%WOOFNB 1.0\nname: demo\nextra_key: 1\n```cell id=a\n```\n"
	nb := mustParse(t, src)
	want := "%WOOFNB 1.0\nname: demo\nextra_key: 1"
	if nb.Header.Raw != want {
		t.Fatalf("Raw = %q, want %q", nb.Header.Raw, want)
	}
	if nb.Header.Extra["extra_key"] != 1 {
		t.Fatalf("Extra = %v", nb.Header.Extra)
	}
}

func asWoofErr(err error, target **woofterr.Error) bool {
	we, ok := err.(*woofterr.Error)
	if !ok {
		return false
	}
	*target = we
	return true
}

func TestTokenizeCellHeader_BackslashPreservedOutsideEscapes(t *testing.T) {
	toks, err := tokenizeCellHeader(`name="a\nb"`, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || !strings.Contains(toks[0].Value, `\n`) {
		t.Fatalf("tokens = %+v", toks)
	}
}
