// Package engine is the device-management protocol engine the client drives.
//
// Ownership boundary:
// - server registration lifecycle (register, update, deregister)
// - confirmable transaction retransmission
// - the ordered object list and its read/write capabilities
// - inbound request handling and value-change notification
//
// The engine never touches sockets. It emits bytes only through the Session
// handed to AddServer, and it learns about time only through Step.
package engine
