// Package config holds the named JSON configurations of the sjf server and
// turns them into the runtime configuration of its components.
package config
