// Package commands defines the shellexport CLI.
//
// Commands
//
//   - probe  Report which desktop-shell services are on the session bus
//   - run    Export an X11 window's menu bar and a tray icon until interrupted
//
// The root command configures logging and builds the process-wide export
// factory before any subcommand runs.
package commands
