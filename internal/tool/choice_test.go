package tool

import "testing"

func TestParseChoice(t *testing.T) {
	cases := []struct {
		in   string
		want Choice
	}{
		{"auto", Auto},
		{"none", None},
		{"false", None},
		{"required", Required},
		{"true", Required},
		{"fn:search", Choice{Kind: ChoiceFunction, Function: "search"}},
		{"search", Choice{Kind: ChoiceFunction, Function: "search"}},
	}
	for _, tc := range cases {
		got, err := ParseChoice(tc.in)
		if err != nil {
			t.Fatalf("ParseChoice(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseChoice(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseChoiceRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "fn:", "has space", "weird!name"} {
		if _, err := ParseChoice(in); err == nil {
			t.Errorf("ParseChoice(%q) expected error, got nil", in)
		}
	}
}
