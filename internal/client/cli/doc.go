// Package cli is the interactive shell of the nutrisync client.
//
// App wires the local cache, API client, connectivity monitor, repositories
// and sync scheduler together and runs them alongside a line-oriented REPL.
// Commands only call repository and scheduler methods; all of the sync
// behaviour lives below this package.
//
// See App, Exec and the help text for the command set.
package cli
