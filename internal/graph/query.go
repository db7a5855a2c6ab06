package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/deepthoughts/thoughts-server/internal/auth"
)

func (r *Resolver) Thoughts(ctx context.Context, args struct{ Username *string }) ([]*thoughtResolver, error) {
	var username string
	if args.Username != nil {
		username = *args.Username
	}
	thoughts, err := r.thoughts.List(ctx, username)
	if err != nil {
		return nil, translate("thoughts", err)
	}
	return thoughtList(thoughts), nil
}

func (r *Resolver) Thought(ctx context.Context, args struct{ ID graphql.ID }) (*thoughtResolver, error) {
	t, err := r.thoughts.Get(ctx, string(args.ID))
	if err != nil {
		return nil, translate("thought", err)
	}
	return thought(t), nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.users.Me(ctx, auth.FromContext(ctx))
	if err != nil {
		return nil, translate("me", err)
	}
	return r.user(u), nil
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.users.Users(ctx)
	if err != nil {
		return nil, translate("users", err)
	}
	return r.userList(users), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	u, err := r.users.User(ctx, args.Username)
	if err != nil {
		return nil, translate("user", err)
	}
	return r.user(u), nil
}

func (r *Resolver) IsFriend(ctx context.Context, args struct{ Username string }) (bool, error) {
	ok, err := r.users.IsFriend(ctx, auth.FromContext(ctx), args.Username)
	if err != nil {
		return false, translate("isFriend", err)
	}
	return ok, nil
}
