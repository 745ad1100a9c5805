// Package config resolves the client's runtime configuration.
//
// Layers apply in order, later wins: built-in defaults, an optional TOML file,
// an optional .env file, then EDGECLIENT_* environment variables.
package config
