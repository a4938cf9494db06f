// Package config defines the configuration of the routeloader binary and
// loads it with viper from a YAML file, ROUTELOADER_* environment variables
// and built-in defaults.
//
// Command-line flags are applied by the cli package on top of the loaded
// value, and the result is checked with Config.Validate before the
// application is built.
package config
