// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It layers
// flags over the file and environment configuration and hands the result to
// the application.
package cli
