// Package confloader provides the configuration loading mechanism.
//
// It loads configuration with koanf from a YAML file and from environment
// variables, and unmarshals the merged result into a typed struct that
// already holds the defaults. Keys missing from every source keep their
// default value.
//
// Priority (highest to lowest):
//
//  1. Environment variables (TLSREST_SECTION_KEY)
//  2. Configuration file
//  3. Default values
//
// Watcher reports changes to the configuration file so selected settings,
// such as the log level, can be re-applied without a restart.
package confloader
