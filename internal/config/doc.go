// Package config defines deployment settings used by both binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the project directory, service identity and the
// knobs of the deploy cycle. A missing configuration file is not an error:
// the built-in defaults describe the conventional Raspberry Pi layout.
package config
