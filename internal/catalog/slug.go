package catalog

import (
	"context"

	"github.com/gosimple/slug"
)

// Slugify derives the URL slug of a title: lower case, ASCII, hyphenated.
func Slugify(title string) string { return slug.Make(title) }

type actorKey struct{}

// WithActor records the id of the authenticated user performing catalog
// writes, for the audit trail.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by WithActor.
func ActorFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
