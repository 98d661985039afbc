// Package cli implements a command line client for the sjf gateway.
// Supported commands are listed in cli.go.
package cli
