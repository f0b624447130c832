// Package cli provides the interactive e-library account client.
//
// It wires configuration and the HTTP API client into a REPL. A session
// saved by an earlier run is restored on start.
//
// Commands:
//   - register / verify: create an account and confirm the emailed code
//   - login / logout / me: session handling and profile
//   - forgot / reset: password recovery by emailed code
//   - passwd: change the password of the signed-in account
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
