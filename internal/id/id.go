// Package id implements the content-addressed identifier format shared by
// conversations, events, models, and providers/personas.
//
// An identifier has the form `<prefix>-<variant><target>-<global>`, e.g.
// `jp-c17457886043-otvo8`. The variant is a single character discriminating
// the entity kind; the target is entity-specific (for time-derived kinds, a
// signed decisecond timestamp); the global segment is a per-process
// discriminator shared by every id minted in the same run.
package id

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Prefix is prepended to every formatted identifier.
const Prefix = "jp"

// NanosecondsPerDecisecond is the truncation unit used by time-derived target
// ids: 10^8 nanoseconds (one tenth of a second).
const NanosecondsPerDecisecond = 100_000_000

// Variant discriminates the kind of entity an identifier names.
type Variant byte

const (
	VariantConversation Variant = 'c'
	VariantEvent        Variant = 'e'
	VariantModel        Variant = 'm'
	VariantProvider     Variant = 'p'
)

// IsValid reports whether v is one of the known variant characters.
func (v Variant) IsValid() bool {
	switch v {
	case VariantConversation, VariantEvent, VariantModel, VariantProvider:
		return true
	default:
		return false
	}
}

func (v Variant) String() string { return string(rune(v)) }

const globalIDLength = 6

var (
	globalOnce sync.Once
	globalID   string
)

// globalAlphabet matches the Parts validation rule: ASCII digits plus
// lowercase ASCII letters only.
const globalAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Global returns the per-process instance discriminator, generating it on
// first use and memoizing it for the remainder of the process lifetime.
func Global() string {
	globalOnce.Do(func() {
		globalID = newGlobalID()
	})
	return globalID
}

func newGlobalID() string {
	buf := make([]byte, globalIDLength)
	out := make([]byte, globalIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is effectively unrecoverable on any real
		// platform; fall back to a time-derived value rather than panic,
		// since the global id is a discriminator, not a security boundary.
		ts := strconv.FormatInt(time.Now().UnixNano(), 36)
		if len(ts) >= globalIDLength {
			return strings.ToLower(ts[len(ts)-globalIDLength:])
		}
		return strings.ToLower(ts)
	}
	for i, b := range buf {
		out[i] = globalAlphabet[int(b)%len(globalAlphabet)]
	}
	return string(out)
}

// Parts is the decomposition of a parsed identifier.
type Parts struct {
	Prefix   string
	Variant  Variant
	TargetID string
	GlobalID string
}

// Format renders parts back into `<prefix>-<variant><target>-<global>`.
func Format(variant Variant, target, global string) string {
	return fmt.Sprintf("%s-%c%s-%s", Prefix, byte(variant), target, global)
}

// Parse decomposes s into its Parts without checking the variant against any
// expected value; use ParseVariant to additionally enforce that.
func Parse(s string) (Parts, error) {
	prefix, rest, ok := strings.Cut(s, "-")
	if !ok {
		return Parts{}, fmt.Errorf("%w: %s", ErrMissingPrefix, s)
	}
	if prefix != Prefix {
		return Parts{}, fmt.Errorf("%w, must be %s: %s", ErrInvalidPrefix, Prefix, prefix)
	}

	variantAndTarget, global, ok := strings.Cut(rest, "-")
	if !ok {
		return Parts{}, ErrMissingVariantAndTarget
	}
	if variantAndTarget == "" {
		return Parts{}, ErrMissingVariant
	}

	variant := Variant(variantAndTarget[0])
	if !variant.IsValid() {
		return Parts{}, fmt.Errorf("%w: %c", ErrInvalidVariant, byte(variant))
	}

	target := variantAndTarget[1:]
	if target == "" {
		return Parts{}, ErrMissingTargetID
	}

	if global == "" {
		return Parts{}, ErrMissingGlobalID
	}
	for _, c := range global {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'z'
		if !isDigit && !isLower {
			return Parts{}, fmt.Errorf("%w, must be [a-z0-9]: %s", ErrInvalidGlobalID, global)
		}
	}

	return Parts{Prefix: prefix, Variant: variant, TargetID: target, GlobalID: global}, nil
}

// ParseVariant parses s and additionally requires its variant to match want.
func ParseVariant(s string, want Variant) (Parts, error) {
	parts, err := Parse(s)
	if err != nil {
		return Parts{}, err
	}
	if parts.Variant != want {
		return Parts{}, fmt.Errorf("%w: expected %c, got %c", ErrUnexpectedVariant, byte(want), byte(parts.Variant))
	}
	return parts, nil
}

// Deciseconds truncates t to decisecond precision and returns the count of
// deciseconds since the Unix epoch as a signed integer, matching the target
// id encoding used by time-derived identifiers.
func Deciseconds(t time.Time) int64 {
	return t.UnixNano() / NanosecondsPerDecisecond
}

// TimeFromDeciseconds is the inverse of Deciseconds.
func TimeFromDeciseconds(d int64) time.Time {
	return time.Unix(0, d*NanosecondsPerDecisecond).UTC()
}

// FormatTimeVariant formats a time-derived identifier (conversation or
// event) for the given time, using the process-wide global discriminator.
func FormatTimeVariant(variant Variant, t time.Time) string {
	return Format(variant, strconv.FormatInt(Deciseconds(t), 10), Global())
}

// ParseTimeVariant parses a time-derived identifier and recovers its
// creation time alongside the decomposed Parts.
func ParseTimeVariant(s string, want Variant) (Parts, time.Time, error) {
	parts, err := ParseVariant(s, want)
	if err != nil {
		return Parts{}, time.Time{}, err
	}
	d, err := strconv.ParseInt(parts.TargetID, 10, 64)
	if err != nil {
		return Parts{}, time.Time{}, fmt.Errorf("%w: %s", ErrMissingTargetID, parts.TargetID)
	}
	return parts, TimeFromDeciseconds(d), nil
}
