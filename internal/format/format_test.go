package format

import (
	"testing"

	"github.com/woofnb/woofnb/internal/parser"
)

func TestSerialize_RoundTrip(t *testing.T) {
	src := "%WOOFNB 1.0\nname: demo\nlanguage: python\n" +
		"```cell id=a type=code\nprint(1)\n```\n"

	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := Serialize(nb)
	if got != src {
		t.Fatalf("Serialize round trip mismatch:\ngot:  %q\nwant: %q", got, src)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	src := "%WOOFNB 1.0\nlanguage: python\nname: demo\n" +
		"```cell type=code id=b deps=a,c\nbody\n```\n"

	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first, err := Format(nb)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	nb2, err := parser.Parse(first)
	if err != nil {
		t.Fatalf("Parse(formatted): %v", err)
	}
	second, err := Format(nb2)
	if err != nil {
		t.Fatalf("Format(formatted): %v", err)
	}

	if first != second {
		t.Fatalf("Format is not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestFormat_CanonicalCellTokenOrder(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell disabled priority=1 id=a type=code deps=x\n```\n"
	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Format(nb)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "%WOOFNB 1.0\n```cell id=a type=code deps=x priority=1 disabled\n```\n"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormat_UnknownTokensSortedAndAppended(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell zeta=1 id=a alpha=2\n```\n"
	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Format(nb)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "%WOOFNB 1.0\n```cell id=a type=code alpha=2 zeta=1\n```\n"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}
