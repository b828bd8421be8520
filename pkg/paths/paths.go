package paths

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// GetCurrentBinaryPath returns the directory of the running binary, falling
// back to the current working directory.
func GetCurrentBinaryPath() string {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		if dir, err = os.Getwd(); err != nil {
			panic(errors.Wrap(err, "failed determining current binary location"))
		}
	}

	return dir
}
