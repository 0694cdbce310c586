package util

import "testing"

func TestNormalizeSpaces(t *testing.T) {
	if got := NormalizeSpaces("  no \t water\n supply "); got != "no water supply" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\n\n  b  \n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %q", got)
	}
}

func TestDigits(t *testing.T) {
	cases := map[string]string{
		"412 210":    "412210",
		"४१२२१०":     "412210",
		"PIN: 41-22": "4122",
		"":           "",
	}
	for in, want := range cases {
		if got := Digits(in); got != want {
			t.Fatalf("Digits(%q)=%q want %q", in, got, want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Fatalf("got %q", got)
	}
}
