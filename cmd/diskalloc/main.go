// Command diskalloc runs command scripts against a simulated volume and prints
// the resulting disk map.
package main

import (
	"os"

	"github.com/lance6716/disk-allocator/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.LogError("Command execution failed", err, nil)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
