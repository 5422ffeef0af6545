// Package secnum provides parsing and ordering for alphanumeric legislative
// section numbers such as "14", "14A" and "760A".
//
// Legal codes number sections with an integer magnitude and an optional
// letter suffix used for sections inserted between existing ones. Plain
// string or integer comparison mis-orders these ("14A" must sort between
// "14" and "15"), so the package defines a dedicated value type with a
// total order: magnitude first, then suffix, with the empty suffix sorting
// before any non-empty suffix at the same magnitude.
package secnum

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is the comparable key derived from a raw section-number string.
// The zero value (magnitude 0, no suffix) sorts before every valid
// section number and is safe to use as a sentinel lower bound.
type Number struct {
	Magnitude int    `json:"magnitude"`
	Suffix    string `json:"suffix,omitempty"`
}

// Parse converts a raw section-number string into a Number.
//
// Accepted input is a leading digit run followed by an optional trailing
// letter run, with surrounding whitespace and a single trailing period
// tolerated ("14", "14A", "14a.", " 760A "). Suffix letters are
// normalized to upper case. Input with no leading digits is a parse
// failure, returned as an error rather than a panic: malformed numbers
// are expected in scraped legal documents and callers route the
// offending record instead of aborting.
func Parse(raw string) (Number, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimSuffix(trimmed, ".")

	if trimmed == "" {
		return Number{}, fmt.Errorf("empty section number")
	}

	digitEnd := 0
	for digitEnd < len(trimmed) && trimmed[digitEnd] >= '0' && trimmed[digitEnd] <= '9' {
		digitEnd++
	}
	if digitEnd == 0 {
		return Number{}, fmt.Errorf("section number %q has no leading digits", raw)
	}

	magnitude, err := strconv.Atoi(trimmed[:digitEnd])
	if err != nil {
		return Number{}, fmt.Errorf("section number %q: magnitude out of range: %w", raw, err)
	}

	suffix := trimmed[digitEnd:]
	for _, suffixRune := range suffix {
		isLetter := (suffixRune >= 'A' && suffixRune <= 'Z') || (suffixRune >= 'a' && suffixRune <= 'z')
		if !isLetter {
			return Number{}, fmt.Errorf("section number %q has trailing non-letter characters", raw)
		}
	}

	return Number{
		Magnitude: magnitude,
		Suffix:    strings.ToUpper(suffix),
	}, nil
}

// MustParse is a convenience wrapper around Parse for values known to be
// valid, such as test fixtures and built-in defaults. It panics on error.
func MustParse(raw string) Number {
	number, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return number
}

// Compare returns -1, 0 or 1 as a sorts before, equal to, or after b.
// Magnitude dominates; among equal magnitudes the empty suffix sorts
// first and non-empty suffixes sort lexicographically, so
// "14" < "14A" < "14B" < "15".
func Compare(a, b Number) int {
	switch {
	case a.Magnitude < b.Magnitude:
		return -1
	case a.Magnitude > b.Magnitude:
		return 1
	}

	switch {
	case a.Suffix == b.Suffix:
		return 0
	case a.Suffix == "":
		return -1
	case b.Suffix == "":
		return 1
	case a.Suffix < b.Suffix:
		return -1
	default:
		return 1
	}
}

// Less reports whether n sorts strictly before m.
func (n Number) Less(m Number) bool {
	return Compare(n, m) < 0
}

// InRange reports whether n lies within the closed range [start, end].
func InRange(n, start, end Number) bool {
	return Compare(n, start) >= 0 && Compare(n, end) <= 0
}

// Max returns the later of a and b in section-number order.
func Max(a, b Number) Number {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// Min returns the earlier of a and b in section-number order.
func Min(a, b Number) Number {
	if Compare(a, b) <= 0 {
		return a
	}
	return b
}

// Prev returns the identifier one unit before n in section-number order,
// used when clamping an overlapping boundary to end just before its
// successor's start. A suffixed number steps back within its magnitude
// ("14B" -> "14A", "14A" -> "14"); a plain number steps back one
// magnitude ("15" -> "14"). Prev of the zero value is the zero value.
func Prev(n Number) Number {
	if n.Suffix != "" {
		lastLetter := n.Suffix[len(n.Suffix)-1]
		if lastLetter == 'A' {
			return Number{Magnitude: n.Magnitude, Suffix: n.Suffix[:len(n.Suffix)-1]}
		}
		return Number{Magnitude: n.Magnitude, Suffix: n.Suffix[:len(n.Suffix)-1] + string(lastLetter-1)}
	}
	if n.Magnitude == 0 {
		return Number{}
	}
	return Number{Magnitude: n.Magnitude - 1}
}

// String renders the number the way it appears in source documents,
// e.g. "14" or "760A".
func (n Number) String() string {
	return strconv.Itoa(n.Magnitude) + n.Suffix
}
