// Package config loads the YAML configuration shared by every command.
//
// Environment variables referenced as ${NAME} are expanded before parsing, so
// credentials can stay out of the file. Values missing from the file keep the
// defaults returned by Default. Validate checks the sections a command needs
// and reports the first problem as a *ConfigError.
package config
