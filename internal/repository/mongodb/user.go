package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

type userDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Username  string               `bson:"username"`
	Email     string               `bson:"email"`
	Password  string               `bson:"password"`
	AvatarURL *string              `bson:"avatarUrl,omitempty"`
	Thoughts  []primitive.ObjectID `bson:"thoughts"`
	Friends   []primitive.ObjectID `bson:"friends"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:         d.ID.Hex(),
		Username:   d.Username,
		Email:      d.Email,
		Password:   d.Password,
		AvatarURL:  d.AvatarURL,
		ThoughtIDs: hexIDs(d.Thoughts),
		FriendIDs:  hexIDs(d.Friends),
		CreatedAt:  d.CreatedAt,
	}
}

// UserRepository handles the users collection
type UserRepository struct {
	collection *mongo.Collection
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

// Create inserts a new user. The store assigns the id when it is empty.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	doc := userDoc{
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		AvatarURL: user.AvatarURL,
		Thoughts:  objectIDs(user.ThoughtIDs),
		Friends:   objectIDs(user.FriendIDs),
		CreatedAt: user.CreatedAt,
	}
	if user.ID != "" {
		oid, err := objectID(user.ID)
		if err != nil {
			return err
		}
		doc.ID = oid
	} else {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return mapError(err, "user")
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapError(err, "user")
	}
	return doc.model(), nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	users := make([]*models.User, len(docs))
	for i := range docs {
		users[i] = docs[i].model()
	}
	return users, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ListByIDs retrieves existing users among ids, in the order of ids
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*models.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func (r *UserRepository) update(ctx context.Context, userID string, update bson.M) (*models.User, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, afterUpdate()).Decode(&doc)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return doc.model(), nil
}

func (r *UserRepository) updateRef(ctx context.Context, userID, op, field, refID string) (*models.User, error) {
	ref, err := objectID(refID)
	if err != nil {
		if op == "$pull" {
			// nothing stored can match a malformed id
			return r.GetByID(ctx, userID)
		}
		return nil, err
	}
	return r.update(ctx, userID, bson.M{op: bson.M{field: ref}})
}

// PushThought appends a thought reference
func (r *UserRepository) PushThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.updateRef(ctx, userID, "$push", "thoughts", thoughtID)
}

// PullThought removes every reference to a thought
func (r *UserRepository) PullThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.updateRef(ctx, userID, "$pull", "thoughts", thoughtID)
}

// AddFriend adds a friend reference with set semantics
func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.updateRef(ctx, userID, "$addToSet", "friends", friendID)
}

// RemoveFriend removes every occurrence of a friend reference
func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.updateRef(ctx, userID, "$pull", "friends", friendID)
}

// SetAvatarURL updates the avatar URL for a user
func (r *UserRepository) SetAvatarURL(ctx context.Context, userID, url string) (*models.User, error) {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"avatarUrl": url}})
}
