package config

import (
	"fmt"
	"strings"

	intconfig "github.com/leapstack-labs/sqlrepair/internal/config"
	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// Validate checks option ranges. Target checks wait for ResolveTarget,
// since the document may still pick the dialect.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	}
	if c.MinQueryLength < 0 {
		return fmt.Errorf("min_query_length must not be negative")
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if c.Dialect != "" {
		if _, err := dialect.Lookup(c.Dialect); err != nil {
			return err
		}
	}
	return nil
}

// ResolveTarget picks the dialect and the engine to validate against.
//
// The dialect comes from, in order: the --dialect flag, the document's
// frontmatter, the config dialect key, the target type, and finally the
// built-in default. The target type defaults to the dialect and must
// agree with it.
func (c *Config) ResolveTarget(documentDialect string) (*dialect.Dialect, core.TargetConfig, error) {
	var target core.TargetConfig
	if c.Target != nil {
		target = *c.Target
	}

	name := DefaultDialect
	switch {
	case c.dialectFromFlag && c.Dialect != "":
		name = c.Dialect
	case documentDialect != "":
		name = documentDialect
	case c.Dialect != "":
		name = c.Dialect
	case target.Type != "":
		name = target.Type
	}

	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, target, err
	}

	if target.Type == "" {
		target.Type = d.Name
	}
	intconfig.ApplyTargetDefaults(&target)
	if !strings.EqualFold(target.Type, d.Name) {
		return nil, target, fmt.Errorf("dialect %q does not match target type %q\nHint: Set target.type to %s or validate with --dialect %s",
			d.Name, target.Type, d.Name, target.Type)
	}
	if err := intconfig.ValidateTarget(&target); err != nil {
		return nil, target, fmt.Errorf("invalid target configuration: %w", err)
	}
	return d, target, nil
}
