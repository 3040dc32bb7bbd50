package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCompiler(); err != nil {
		return err
	}
	if err := c.validateEvaluation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (want debug, info, warn or error)", c.Logging.Level)
	}
}

func (c *Config) validateCompiler() error {
	seen := make(map[string]struct{}, len(c.Compiler.Groups))
	for _, g := range c.Compiler.Groups {
		if _, ok := seen[g.Name]; ok {
			return fmt.Errorf("compiler.groups: duplicate group %q", g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateEvaluation() error {
	switch c.Evaluation.TemplateStorage {
	case StorageEphemeral, StoragePersistent:
	default:
		return fmt.Errorf("evaluation.template_storage: unsupported value %q (want %s or %s)",
			c.Evaluation.TemplateStorage, StorageEphemeral, StoragePersistent)
	}
	if c.Evaluation.TemplateStorage == StoragePersistent && c.Paths.StorePath == "" {
		return errors.New("paths.store_path must be set when evaluation.template_storage is persistent")
	}
	return nil
}
