// Package config provides the run configuration of humantouch: defaults,
// the optional .humantouch YAML file, and validation.
package config
