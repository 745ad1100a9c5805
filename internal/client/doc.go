// Package client owns the runtime shell of the device client.
//
// Ownership boundary:
// - the event loop: engine tick, bounded readiness wait, routing
// - packet dispatch: sender validation against the session
// - interactive verbs: list, change, quit
// - service bootstrap and shutdown ordering
//
// Lifecycle order:
// - bind -> engine -> connect -> add server -> register -> loop
//
// - a graceful stop deregisters before releasing sockets; an abrupt stop
// releases sockets directly.
//
// Everything here runs on one goroutine. The only cross-goroutine input is
// Loop.Interrupt.
package client
