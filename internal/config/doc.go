// Package config loads, normalizes, and validates seen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and then applies SEEN_* environment overrides
// so container deployments can adjust any knob without a config file. The
// Config type centralizes every setting the daemon and CLI need: storage and
// log directories, blur kernels, workbench sampling, workflow timing, and the
// ffmpeg binaries.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
