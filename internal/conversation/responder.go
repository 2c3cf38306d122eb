package conversation

import "context"

// Responder is the conversational engine boundary. It consumes one canonical
// message and returns zero or more reply directives for the adapter to render.
type Responder interface {
	Respond(ctx context.Context, msg IncomingMessage) ([]Reply, error)
}

// EventHandler is implemented by responders that also consume out-of-band
// gateway events (subscriber joins, referrals) that arrive without a chat
// message.
type EventHandler interface {
	HandleEvent(ctx context.Context, event GenericEvent) error
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, msg IncomingMessage) ([]Reply, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, msg IncomingMessage) ([]Reply, error) {
	return f(ctx, msg)
}
