package engine

import "errors"

var (
	ErrNoEndpoint      = errors.New("engine: missing endpoint name")
	ErrNoServer        = errors.New("engine: no server configured")
	ErrDuplicateServer = errors.New("engine: duplicate server short id")
	ErrDuplicateObject = errors.New("engine: duplicate object id")
	ErrNilSession      = errors.New("engine: nil session")
	ErrClosed          = errors.New("engine: closed")
	ErrInvalidURI      = errors.New("engine: invalid uri")
	ErrInvalidMessage  = errors.New("engine: invalid message")
)
