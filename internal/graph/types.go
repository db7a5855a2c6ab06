package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type userResolver struct {
	u     *models.User
	users *services.UserService
}

func (r *Resolver) user(u *models.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u: u, users: r.users}
}

func (r *Resolver) userList(users []*models.User) []*userResolver {
	out := make([]*userResolver, 0, len(users))
	for _, u := range users {
		out = append(out, r.user(u))
	}
	return out
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.u.ID) }
func (r *userResolver) Username() string { return r.u.Username }
func (r *userResolver) Email() string { return r.u.Email }
func (r *userResolver) AvatarURL() *string { return r.u.AvatarURL }

func (r *userResolver) FriendCount() int32 {
	return int32(r.u.FriendCount())
}

// Friends is joined only when selected
func (r *userResolver) Friends(ctx context.Context) ([]*userResolver, error) {
	friends, err := r.users.Friends(ctx, r.u)
	if err != nil {
		return nil, translate("User.friends", err)
	}
	out := make([]*userResolver, 0, len(friends))
	for _, f := range friends {
		out = append(out, &userResolver{u: f, users: r.users})
	}
	return out, nil
}

// Thoughts is joined only when selected
func (r *userResolver) Thoughts(ctx context.Context) ([]*thoughtResolver, error) {
	thoughts, err := r.users.Thoughts(ctx, r.u)
	if err != nil {
		return nil, translate("User.thoughts", err)
	}
	return thoughtList(thoughts), nil
}

type thoughtResolver struct {
	t *models.Thought
}

func thought(t *models.Thought) *thoughtResolver {
	if t == nil {
		return nil
	}
	return &thoughtResolver{t: t}
}

func thoughtList(thoughts []*models.Thought) []*thoughtResolver {
	out := make([]*thoughtResolver, 0, len(thoughts))
	for _, t := range thoughts {
		out = append(out, thought(t))
	}
	return out
}

func (r *thoughtResolver) ID() graphql.ID { return graphql.ID(r.t.ID) }
func (r *thoughtResolver) ThoughtText() string { return r.t.ThoughtText }
func (r *thoughtResolver) CreatedAt() string { return formatTime(r.t.CreatedAt) }
func (r *thoughtResolver) Username() string { return r.t.Username }

func (r *thoughtResolver) ReactionCount() int32 {
	return int32(r.t.ReactionCount())
}

func (r *thoughtResolver) Reactions() []*reactionResolver {
	out := make([]*reactionResolver, 0, len(r.t.Reactions))
	for i := range r.t.Reactions {
		out = append(out, &reactionResolver{rc: r.t.Reactions[i]})
	}
	return out
}

type reactionResolver struct {
	rc models.Reaction
}

func (r *reactionResolver) ID() graphql.ID { return graphql.ID(r.rc.ID) }
func (r *reactionResolver) ReactionBody() string { return r.rc.ReactionBody }
func (r *reactionResolver) CreatedAt() string { return formatTime(r.rc.CreatedAt) }
func (r *reactionResolver) Username() string { return r.rc.Username }

type authResolver struct {
	token string
	user  *userResolver
}

func (r *authResolver) Token() graphql.ID { return graphql.ID(r.token) }
func (r *authResolver) User() *userResolver { return r.user }

type avatarUploadResolver struct {
	upload *services.AvatarUpload
}

func (r *avatarUploadResolver) UploadURL() string { return r.upload.UploadURL }
func (r *avatarUploadResolver) AvatarURL() string { return r.upload.AvatarURL }
func (r *avatarUploadResolver) ExpiresIn() int32 { return int32(r.upload.ExpiresIn) }
