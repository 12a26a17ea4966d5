package access

import "context"

// Actor is the identity performing an operation. The zero value is the anonymous actor.
type Actor struct {
	ID string
}

// Anonymous returns the actor used for requests without credentials.
func Anonymous() Actor {
	return Actor{}
}

// User returns the actor for a signed-in user.
func User(id string) Actor {
	return Actor{ID: id}
}

// Authenticated reports whether the actor carries a user id.
func (a Actor) Authenticated() bool {
	return a.ID != ""
}

type ctxKey struct{}

// WithActor stores the acting identity on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFromContext returns the acting identity, or the anonymous actor if none was stored.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Anonymous()
	}
	if actor, ok := ctx.Value(ctxKey{}).(Actor); ok {
		return actor
	}
	return Anonymous()
}
