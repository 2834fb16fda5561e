// Package config holds the configuration surface of fedicensus.
//
// Configuration flows from three layers, later layers overriding earlier
// ones: built-in defaults (NewConfig), an optional YAML configuration file
// (.fedicensus, found in the current or home directory), and command-line
// flags. The merged Config is validated once, before any crawling begins,
// and then passed through the application by dependency injection rather
// than global state.
package config
