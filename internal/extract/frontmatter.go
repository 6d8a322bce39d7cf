package extract

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Frontmatter represents the optional YAML block at the top of a document.
// Unknown fields cause parse errors (use Meta for extensions).
type Frontmatter struct {
	Dialect string         `yaml:"dialect"`
	Aliases core.AliasMap  `yaml:"aliases"`
	Columns []string       `yaml:"columns"` // known column names for nearest-match remediation
	Tables  []string       `yaml:"tables"`  // known table names for nearest-match remediation
	Meta    map[string]any `yaml:"meta"`    // Extension point for custom fields
}

// AliasMap returns the remediation hints the rewrite rules consume.
func (f *Frontmatter) AliasMap() core.AliasMap {
	m := f.Aliases
	m.KnownColumns = f.Columns
	m.KnownTables = f.Tables
	return m
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *Frontmatter
	Offset  int  // byte offset of the document body after the frontmatter
	HasYAML bool // Whether frontmatter was found
}

// frontmatterPattern matches a leading --- ... --- block.
var frontmatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(?:(.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

var (
	knownFields      = map[string]bool{"dialect": true, "aliases": true, "columns": true, "tables": true, "meta": true}
	knownAliasFields = map[string]bool{"columns": true, "tables": true}
)

// ExtractFrontmatter extracts YAML frontmatter from a document.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{Config: &Frontmatter{}}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}

	result.HasYAML = true
	result.Offset = loc[1]

	if loc[2] < 0 {
		return result, nil
	}
	config, err := parseFrontmatterYAML(content[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}
	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*Frontmatter, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	if field := firstUnknown(rawMap, knownFields); field != "" {
		return nil, &UnknownFieldError{Field: field}
	}
	if aliases, ok := rawMap["aliases"].(map[string]any); ok {
		if field := firstUnknown(aliases, knownAliasFields); field != "" {
			return nil, &UnknownFieldError{Field: "aliases." + field}
		}
	}

	var config Frontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterError{Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}
	}
	return &config, nil
}

// firstUnknown returns the alphabetically first key not in known.
func firstUnknown(m map[string]any, known map[string]bool) string {
	var unknown []string
	for field := range m {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	sort.Strings(unknown)
	return unknown[0]
}

// FrontmatterError represents a frontmatter parsing error.
type FrontmatterError struct {
	File    string
	Message string
}

func (e *FrontmatterError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
