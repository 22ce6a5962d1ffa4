package utils

import "testing"

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"demo-s01e01":      "demo-s01e01",
		"Pilot: Part 1/2":  "Pilot_Part_12",
		"  spaced   out  ": "spaced_out",
		"":                 "fallback",
		"../../etc":        "etc",
		"???":              "fallback",
	}
	for in, want := range cases {
		if got := Sanitize(in, "fallback"); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("drops/Late Night.JSON", "dump"); got != "Late_Night.json" {
		t.Errorf("unexpected %q", got)
	}
	if got := SanitizeFilename("???.yaml", "dump"); got != "dump.yaml" {
		t.Errorf("unexpected %q", got)
	}
}
