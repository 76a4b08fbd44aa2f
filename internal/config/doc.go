// Package config defines the logger settings and provides helpers to load,
// validate and save them. YAML is the default format; a path ending in
// ".toml" is read and written as TOML instead.
//
// Settings cover the gRPC status address, storage of record files, the sensor
// source, the output driver and the relay conflict policy. Operator controls
// such as thresholds and sample interval live in the panel file, not here.
package config
