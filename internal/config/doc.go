// Package config provides application configuration loaded from environment
// variables (EQ_ prefix) merged with an optional YAML file. The Analysis
// section is passed verbatim to the pipeline orchestrator by both the CLI
// and the web service.
package config
