// Package auth resolves the acting user for a request.
package auth

import (
	"context"
	"errors"

	"github.com/nhle/task-tracker/internal/model"
)

// ErrNoActor is returned when no actor is attached to the context.
var ErrNoActor = errors.New("no actor in context")

// Provider resolves the actor performing an operation.
type Provider interface {
	ActorFromContext(ctx context.Context) (model.Actor, error)
}

type actorKey struct{}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ContextProvider reads the actor previously attached with WithActor.
type ContextProvider struct{}

func (ContextProvider) ActorFromContext(ctx context.Context) (model.Actor, error) {
	a, ok := ctx.Value(actorKey{}).(model.Actor)
	if !ok {
		return model.Actor{}, ErrNoActor
	}
	return a, nil
}

// StaticProvider always resolves to a fixed actor. Useful for the CLI,
// where the local user identity comes from configuration.
type StaticProvider struct {
	Actor model.Actor
}

func (p StaticProvider) ActorFromContext(context.Context) (model.Actor, error) {
	if p.Actor.ID == "" {
		return model.Actor{}, ErrNoActor
	}
	return p.Actor, nil
}
