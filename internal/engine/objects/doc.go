// Package objects provides the resource objects the client exposes:
// device (3), firmware (5), location (6) and a test object (1024).
package objects
