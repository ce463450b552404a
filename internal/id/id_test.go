package id

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"missing prefix", "jp", ErrMissingPrefix},
		{"empty variant+target", "jp-", ErrMissingVariantAndTarget},
		{"missing variant and target", "jp-foo", ErrMissingVariantAndTarget},
		{"missing global id", "jp-cfoo-", ErrMissingGlobalID},
		{"invalid prefix", "foo-cbar-baz", ErrInvalidPrefix},
		{"invalid global id", "jp-cfoo-BAZ", ErrInvalidGlobalID},
		{"invalid variant", "jp-zfoo-baz", ErrInvalidVariant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestParseValid(t *testing.T) {
	parts, err := Parse("jp-cfoo-ba1z23")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parts.Prefix != "jp" || parts.Variant != 'c' || parts.TargetID != "foo" || parts.GlobalID != "ba1z23" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestParseVariantMismatch(t *testing.T) {
	_, err := ParseVariant("jp-efoo-bar", VariantConversation)
	if !errors.Is(err, ErrUnexpectedVariant) {
		t.Fatalf("expected ErrUnexpectedVariant, got %v", err)
	}
}

func TestRoundTripTimeVariant(t *testing.T) {
	now := time.Now().UTC()
	s := FormatTimeVariant(VariantConversation, now)

	parts, recovered, err := ParseTimeVariant(s, VariantConversation)
	if err != nil {
		t.Fatalf("ParseTimeVariant: %v", err)
	}
	if parts.Variant != VariantConversation {
		t.Fatalf("variant = %c, want c", byte(parts.Variant))
	}

	wantDeciseconds := Deciseconds(now)
	gotDeciseconds := Deciseconds(recovered)
	if wantDeciseconds != gotDeciseconds {
		t.Fatalf("deciseconds = %d, want %d", gotDeciseconds, wantDeciseconds)
	}
}

func TestGlobalIsStableAndValid(t *testing.T) {
	g1 := Global()
	g2 := Global()
	if g1 != g2 {
		t.Fatalf("Global() not stable across calls: %q vs %q", g1, g2)
	}
	for _, c := range g1 {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'z'
		if !isDigit && !isLower {
			t.Fatalf("global id contains invalid char %q", c)
		}
	}
}
