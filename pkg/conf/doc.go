// Package conf is a helper for the sweep tools configuration for both command
// line interface and environment variables.
// It gives ability to register arguments which will be fetched from
// CLI input OR environment variable.
// By default it registers following options:
// <SWEEP_LOG> --log <Log level: debug, info, warn, error, fatal, panic> Default: error
//
// When `ParseFlags` is executed, the arguments from both CLI and Env are parsed.
// In case of --help option - it prints help.
// It's recommended to run it only once, to have `conf` with all needed options
// registered from the system. When help option is executed it will then show
// whole overview of the configuration.
package conf
