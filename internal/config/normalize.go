package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment overrides, read after the config file and .env.
const (
	EnvLogLevel        = "MOVIESCENE_LOG_LEVEL"
	EnvLogFormat       = "MOVIESCENE_LOG_FORMAT"
	EnvStorePath       = "MOVIESCENE_STORE_PATH"
	EnvTemplateStorage = "MOVIESCENE_TEMPLATE_STORAGE"
	EnvFullCompile     = "MOVIESCENE_FULL_COMPILE"
)

func (c *Config) applyEnv() {
	if value, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv(EnvLogFormat); ok {
		c.Logging.Format = value
	}
	if value, ok := lookupEnv(EnvStorePath); ok {
		c.Paths.StorePath = value
	}
	if value, ok := lookupEnv(EnvTemplateStorage); ok {
		c.Evaluation.TemplateStorage = value
	}
	if value, ok := lookupEnv(EnvFullCompile); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			c.Compiler.FullCompile = parsed
		}
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeCompiler()
	c.normalizeEvaluation()
	c.Inspect.Listen = strings.TrimSpace(c.Inspect.Listen)
	if c.Inspect.Listen == "" {
		c.Inspect.Listen = defaultInspectListen
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StorePath) == "" {
		c.Paths.StorePath = defaultStorePath
	}
	if c.Paths.StorePath, err = expandPath(c.Paths.StorePath); err != nil {
		return fmt.Errorf("paths.store_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeCompiler() {
	groups := c.Compiler.Groups[:0]
	for _, g := range c.Compiler.Groups {
		g.Name = strings.TrimSpace(g.Name)
		if g.Name == "" {
			continue
		}
		groups = append(groups, g)
	}
	c.Compiler.Groups = groups
}

func (c *Config) normalizeEvaluation() {
	c.Evaluation.TemplateStorage = strings.ToLower(strings.TrimSpace(c.Evaluation.TemplateStorage))
	if c.Evaluation.TemplateStorage == "" {
		c.Evaluation.TemplateStorage = defaultTemplateStorage
	}
	if c.Evaluation.FrameStep <= 0 {
		c.Evaluation.FrameStep = defaultFrameStep
	}
}
