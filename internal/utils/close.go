package utils

import (
	"io"

	"github.com/MrSnakeDoc/stash/internal/logger"
)

// Close closes c and logs any error under the given name.
// Use for shutdown paths where a failed close is worth knowing about.
func Close(c io.Closer, name string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close resource",
			logger.String("resource", name),
			logger.Error(err))
	}
}
