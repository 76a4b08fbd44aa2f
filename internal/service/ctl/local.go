package ctl

import (
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/repository/results"
	"github.com/oshokin/datalogger/internal/sensors"
)

// errNoRecords is returned when a record file holds no readable point.
var errNoRecords = errors.New("no readable records")

// History prints every point of a record file. Given a directory, or nothing,
// it lists the record files instead.
func History(opts *Options, path string) error {
	out := output(opts)

	if path == "" {
		cfg, _, err := config.LoadOrDefault(opts.ConfigPath)
		if err != nil {
			return err
		}

		path = cfg.Storage.Dir
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if info.IsDir() {
		files, err := results.List(path)
		if err != nil {
			return err
		}

		for _, f := range files {
			_, _ = fmt.Fprintln(out, f)
		}

		return nil
	}

	store := results.NewStore(path, config.DefaultPrecision)

	count := 0

	for p := range store.All() {
		_, _ = fmt.Fprintf(out, "%g\t%g\n", p.X, p.Y)
		count++
	}

	if err = store.Err(); err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("%w: %s", errNoRecords, path)
	}

	return nil
}

// Ports prints the serial ports present on this machine.
func Ports(opts *Options) error {
	ports, err := sensors.Ports()
	if err != nil {
		return err
	}

	out := output(opts)
	for _, p := range ports {
		_, _ = fmt.Fprintln(out, p)
	}

	return nil
}
