package pipeline

import (
	"fmt"

	"github.com/rastertools/sharpen/internal/sharpen"
)

// Config is the strongly-typed per-invocation configuration. It is
// validated once, before any raster is touched; invalid values fail the
// whole run.
type Config struct {
	// InputRoot holds the input rasters and the batch descriptor.
	InputRoot string
	// OutputRoot receives the sharpened rasters and the output
	// descriptor.
	OutputRoot string
	// WorkRoot stages output rasters until they are published
	// atomically.
	WorkRoot string

	// Strength is one of light, medium, strong.
	Strength string
	// Method selects the filter variant; empty selects unsharp-mask.
	Method string

	// Workers bounds the number of tiles processed concurrently.
	// Values below 2 select the sequential reference path.
	Workers int
}

// Validate normalizes defaults and rejects malformed configuration.
func (c *Config) Validate() error {
	if c.Strength == "" {
		c.Strength = string(sharpen.Medium)
	}
	if c.Method == "" {
		c.Method = sharpen.MethodUnsharp
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.InputRoot == "" {
		return fmt.Errorf("input root must not be empty")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output root must not be empty")
	}
	if c.WorkRoot == "" {
		return fmt.Errorf("work root must not be empty")
	}
	strength, err := sharpen.ParseStrength(c.Strength)
	if err != nil {
		return err
	}
	if _, err := sharpen.New(c.Method, strength); err != nil {
		return err
	}
	return nil
}
