//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process runs the same executable.
var ErrAlreadyRunning = errors.New("another instance is already running")

// FindInstances returns the PIDs of other processes running the named executable.
func FindInstances(executable string) ([]int, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	var pids []int

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != executable {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// EnsureSingleInstance fails when another process runs this executable,
// so two daemons never append to the same record files.
func EnsureSingleInstance() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	pids, err := FindInstances(filepath.Base(self))
	if err != nil {
		return err
	}

	if len(pids) > 0 {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pids[0])
	}

	return nil
}
