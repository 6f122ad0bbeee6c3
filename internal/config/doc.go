// Package config provides configuration structures and utilities for incapscan.
// It defines the options for document extraction, the plausibility checks,
// the assessment engine, the HTTP service, and report generation.
//
// Configuration is layered: NewConfig defaults, then the optional YAML file
// (.incapscan), then CLI flags. The resulting Config is built once at startup
// and passed to every component; nothing reads configuration from globals.
package config
