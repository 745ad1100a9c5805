// Package transport owns the single UDP peer association of the client.
//
// Ownership boundary:
// - socket resolution (wildcard bind, peer resolve)
// - peer address storage and comparison
// - the send primitive used by the protocol engine
// - bounded packet/line buffers
//
// The listening socket is shared: the Session borrows it for sends and the
// event loop reads from it. Only the loop closes it.
package transport
