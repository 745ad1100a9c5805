// Package command owns the interactive verb table.
//
// Ownership boundary:
// - command descriptor validation
// - line tokenization into verb and remainder
// - first-match dispatch and built-in help
//
// Handlers run synchronously on the caller's goroutine and must not block.
package command
