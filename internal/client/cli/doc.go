// Package cli provides the interactive AnyLog command-line client.
//
// It wires configuration, the local record store, the node transport and
// the services into a line-oriented REPL. Local account commands (signup,
// login, bookmarks, presets) work without a node; node commands are sent
// to the current node, which can be switched with "use".
//
// The REPL is started with App.Run, which blocks until the user exits or
// input ends.
package cli
