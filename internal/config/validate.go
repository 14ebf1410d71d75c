package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateDocument(); err != nil {
		return err
	}
	if c.Estimate.Factor < 0 {
		return errors.New("estimate.factor must be >= 0")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %w", err)
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.MaxSegmentSeconds <= 0 {
		return errors.New("chunking.max_segment_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		name  string
		value int
	}{
		{"timeouts.probe", c.Timeouts.Probe},
		{"timeouts.transcode", c.Timeouts.Transcode},
		{"timeouts.split", c.Timeouts.Split},
		{"timeouts.recognize", c.Timeouts.Recognize},
		{"timeouts.download", c.Timeouts.Download},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive", check.name)
		}
	}
	return nil
}

func (c *Config) validateDocument() error {
	if c.Document.WrapWidth < 20 {
		return errors.New("document.wrap_width must be at least 20")
	}
	return nil
}
