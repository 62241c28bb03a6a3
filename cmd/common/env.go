package common

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
)

// EnvLoader provides environment loading utilities
type EnvLoader struct {
	logger logger.Sink
}

// NewEnvLoader creates a new environment loader
func NewEnvLoader(log logger.Sink) *EnvLoader {
	if log == nil {
		log = logger.Nop()
	}
	return &EnvLoader{logger: log}
}

// LoadEnvFile loads environment variables from a file. A missing file is not an error;
// variables already set in the environment win over the file.
func (e *EnvLoader) LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		e.logger.Info("Environment file %s not found, using system environment", path)
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		e.logger.Warning("Could not load environment file %s: %v", path, err)
		return err
	}

	e.logger.Info("Environment loaded from %s", path)
	return nil
}
