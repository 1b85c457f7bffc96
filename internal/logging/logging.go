package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a zap logger. "prod" and "production" produce JSON output at
// info level; anything else is the development console encoder at debug.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
