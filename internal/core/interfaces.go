package core

// Frame is a raw JSON payload ready for the wire.
type Frame []byte

// ConnID identifies one live transport session. It is minted by the
// adapter on upgrade and dies with the connection.
type ConnID string

// SignalConnection abstracts the per-connection messaging transport.
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: a full recipient loses its own frame only.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
