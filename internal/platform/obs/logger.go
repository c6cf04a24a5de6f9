package obs

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger for the given environment.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	switch env {
	case "production", "prod":
		log, err = zap.NewProduction()
	default:
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger for %q: %w", env, err)
	}
	return log, nil
}
