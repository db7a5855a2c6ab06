package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

func (r *Resolver) authPayload(payload *services.AuthPayload) *authResolver {
	return &authResolver{token: payload.Token, user: r.user(payload.User)}
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authResolver, error) {
	payload, err := r.users.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, translate("login", err)
	}
	return r.authPayload(payload), nil
}

func (r *Resolver) AddUser(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
}) (*authResolver, error) {
	payload, err := r.users.SignUp(ctx, services.SignUpInput{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, translate("addUser", err)
	}
	return r.authPayload(payload), nil
}

func (r *Resolver) AddThought(ctx context.Context, args struct{ ThoughtText string }) (*thoughtResolver, error) {
	t, err := r.thoughts.Add(ctx, auth.FromContext(ctx), args.ThoughtText)
	if err != nil {
		return nil, translate("addThought", err)
	}
	return thought(t), nil
}

func (r *Resolver) AddReaction(ctx context.Context, args struct {
	ThoughtID    graphql.ID
	ReactionBody string
}) (*thoughtResolver, error) {
	t, err := r.thoughts.AddReaction(ctx, auth.FromContext(ctx), string(args.ThoughtID), args.ReactionBody)
	if err != nil {
		return nil, translate("addReaction", err)
	}
	return thought(t), nil
}

func (r *Resolver) AddFriend(ctx context.Context, args struct{ FriendID graphql.ID }) (*userResolver, error) {
	u, err := r.users.AddFriend(ctx, auth.FromContext(ctx), string(args.FriendID))
	if err != nil {
		return nil, translate("addFriend", err)
	}
	return r.user(u), nil
}

func (r *Resolver) RemoveFriend(ctx context.Context, args struct{ FriendID graphql.ID }) (*userResolver, error) {
	u, err := r.users.RemoveFriend(ctx, auth.FromContext(ctx), string(args.FriendID))
	if err != nil {
		return nil, translate("removeFriend", err)
	}
	return r.user(u), nil
}

func (r *Resolver) RemoveThought(ctx context.Context, args struct{ ThoughtID graphql.ID }) (*thoughtResolver, error) {
	t, err := r.thoughts.Remove(ctx, auth.FromContext(ctx), string(args.ThoughtID))
	if err != nil {
		return nil, translate("removeThought", err)
	}
	return thought(t), nil
}

func (r *Resolver) RemoveReaction(ctx context.Context, args struct {
	ThoughtID  graphql.ID
	ReactionID graphql.ID
}) (*thoughtResolver, error) {
	t, err := r.thoughts.RemoveReaction(ctx, auth.FromContext(ctx), string(args.ThoughtID), string(args.ReactionID))
	if err != nil {
		return nil, translate("removeReaction", err)
	}
	return thought(t), nil
}

func (r *Resolver) AvatarUploadURL(ctx context.Context, args struct{ ContentType string }) (*avatarUploadResolver, error) {
	if r.avatars == nil {
		return nil, translate("avatarUploadUrl", services.ErrAvatarsDisabled)
	}
	upload, err := r.avatars.RequestUpload(ctx, auth.FromContext(ctx), args.ContentType)
	if err != nil {
		return nil, translate("avatarUploadUrl", err)
	}
	return &avatarUploadResolver{upload: upload}, nil
}
