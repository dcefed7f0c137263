package communication

import "context"

// MessageHandler serves one decoded message. ctx is cancelled when the
// caller goes away, which unblocks handlers that wait on devices.
type MessageHandler func(ctx context.Context, msg Message) (*Response, error)
