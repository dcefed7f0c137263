package server

// Server is a network front end that owns a communicator and routes the
// messages it receives to local services.
type Server interface {
	Start() error
	Stop() error
}
