// Package pattern provides a pluggable registry of outline header pattern
// sets. Different legal codes label their structural containers differently
// ("PART I" vs "DIVISION 1", Roman vs Arabic numbering), so the header
// recognition used by the outline parser is data: pattern sets are loaded
// from YAML files, compiled once, and can be hot-reloaded while a long
// batch run is in progress.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderLevel identifies the structural depth a header pattern recognizes.
type HeaderLevel string

const (
	LevelPart    HeaderLevel = "part"
	LevelChapter HeaderLevel = "chapter"
)

// HeaderPattern defines the recognition rule for one level of structural
// header inside the auxiliary outline text.
type HeaderPattern struct {
	// Level is "part" or "chapter".
	Level HeaderLevel `yaml:"level" json:"level"`

	// Pattern is a regular expression matched against each trimmed
	// outline line. It must contain at least one capture group; the
	// group at LabelGroup captures the container label, e.g. "I" in
	// "PART I".
	Pattern string `yaml:"pattern" json:"pattern"`

	// LabelGroup is the capture group holding the container numbering.
	// Defaults to 1 when omitted.
	LabelGroup int `yaml:"label_group" json:"label_group"`

	compiled *regexp.Regexp
}

// OutlinePattern is a named set of header patterns plus the token rule for
// section numbers, describing how one family of documents writes its
// outline.
type OutlinePattern struct {
	Name         string `yaml:"name" json:"name"`
	Version      string `yaml:"version" json:"version"`
	Jurisdiction string `yaml:"jurisdiction" json:"jurisdiction"`
	FormatID     string `yaml:"format_id" json:"format_id"`

	// Headers lists the header recognition rules, checked in order
	// against each outline line.
	Headers []HeaderPattern `yaml:"headers" json:"headers"`

	// SectionToken is a regular expression a line's leading token must
	// match to count as a section number. Group 1 must capture the
	// number itself.
	SectionToken string `yaml:"section_token" json:"section_token"`

	sectionTokenCompiled *regexp.Regexp
}

// Validate checks that the pattern set is structurally sound without
// compiling it.
func (outlinePattern *OutlinePattern) Validate() error {
	if outlinePattern.FormatID == "" {
		return fmt.Errorf("pattern has no format_id")
	}
	if len(outlinePattern.Headers) == 0 {
		return fmt.Errorf("pattern %q declares no header patterns", outlinePattern.FormatID)
	}
	for i, header := range outlinePattern.Headers {
		if header.Level != LevelPart && header.Level != LevelChapter {
			return fmt.Errorf("pattern %q header %d: unknown level %q", outlinePattern.FormatID, i, header.Level)
		}
		if header.Pattern == "" {
			return fmt.Errorf("pattern %q header %d: empty pattern", outlinePattern.FormatID, i)
		}
	}
	if outlinePattern.SectionToken == "" {
		return fmt.Errorf("pattern %q has no section_token pattern", outlinePattern.FormatID)
	}
	return nil
}

// Compile compiles every regular expression in the pattern set. Compile is
// idempotent; registries call it once at load time.
func (outlinePattern *OutlinePattern) Compile() error {
	for i := range outlinePattern.Headers {
		header := &outlinePattern.Headers[i]
		compiled, err := regexp.Compile(header.Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q header %d: %w", outlinePattern.FormatID, i, err)
		}
		if header.LabelGroup == 0 {
			header.LabelGroup = 1
		}
		if header.LabelGroup >= compiled.NumSubexp()+1 {
			return fmt.Errorf("pattern %q header %d: label_group %d exceeds capture groups", outlinePattern.FormatID, i, header.LabelGroup)
		}
		header.compiled = compiled
	}

	compiledToken, err := regexp.Compile(outlinePattern.SectionToken)
	if err != nil {
		return fmt.Errorf("pattern %q section_token: %w", outlinePattern.FormatID, err)
	}
	if compiledToken.NumSubexp() < 1 {
		return fmt.Errorf("pattern %q section_token must capture the number in group 1", outlinePattern.FormatID)
	}
	outlinePattern.sectionTokenCompiled = compiledToken

	return nil
}

// IsCompiled reports whether Compile has run successfully.
func (outlinePattern *OutlinePattern) IsCompiled() bool {
	return outlinePattern.sectionTokenCompiled != nil
}

// MatchHeader checks a trimmed outline line against the header patterns in
// order. On a match it returns the level and the full container label
// normalized as "<LEVEL> <numbering>", e.g. "PART I" or "CHAPTER 2".
func (outlinePattern *OutlinePattern) MatchHeader(line string) (HeaderLevel, string, bool) {
	for i := range outlinePattern.Headers {
		header := &outlinePattern.Headers[i]
		if header.compiled == nil {
			continue
		}
		match := header.compiled.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		label := match[header.LabelGroup]
		return header.Level, canonicalLabel(header.Level, label), true
	}
	return "", "", false
}

// MatchSectionToken checks whether token is a section-number token and
// returns the captured number string.
func (outlinePattern *OutlinePattern) MatchSectionToken(token string) (string, bool) {
	if outlinePattern.sectionTokenCompiled == nil {
		return "", false
	}
	match := outlinePattern.sectionTokenCompiled.FindStringSubmatch(token)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// canonicalLabel renders a container label in the uniform upper-case form
// used throughout the hierarchy ("PART I", "CHAPTER IV").
func canonicalLabel(level HeaderLevel, numbering string) string {
	numbering = strings.ToUpper(numbering)
	switch level {
	case LevelPart:
		return "PART " + numbering
	case LevelChapter:
		return "CHAPTER " + numbering
	}
	return numbering
}

// Default returns the built-in pattern set covering the common outline
// style of the scraped legal codes: upper-case PART and CHAPTER headers
// with Roman or Arabic numbering, tolerant of extra spacing and of a
// title on the same line, and section tokens as digit runs with an
// optional letter suffix.
func Default() *OutlinePattern {
	defaultPattern := &OutlinePattern{
		Name:         "Generic PART/CHAPTER outline",
		Version:      "1.0",
		Jurisdiction: "generic",
		FormatID:     "generic-part-chapter",
		Headers: []HeaderPattern{
			{
				Level:      LevelPart,
				Pattern:    `(?i)^PART\s+([IVXLCDM]+|\d+[A-Z]*)\b`,
				LabelGroup: 1,
			},
			{
				Level:      LevelChapter,
				Pattern:    `(?i)^CHAPTER\s+([IVXLCDM]+|\d+[A-Z]*)\b`,
				LabelGroup: 1,
			},
		},
		SectionToken: `^(\d+[A-Za-z]{0,3})\.?$`,
	}

	if err := defaultPattern.Compile(); err != nil {
		// The built-in pattern is covered by tests; a compile failure
		// here is a programming error.
		panic(err)
	}
	return defaultPattern
}
