package utils

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. LOG_LEVEL=debug switches to
// the verbose development config.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_LEVEL") == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
