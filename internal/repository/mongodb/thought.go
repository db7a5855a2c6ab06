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

type reactionDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	ReactionBody string             `bson:"reactionBody"`
	Username     string             `bson:"username"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type thoughtDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ThoughtText string             `bson:"thoughtText"`
	Username    string             `bson:"username"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Reactions   []reactionDoc      `bson:"reactions"`
}

func (d *thoughtDoc) model() *models.Thought {
	t := &models.Thought{
		ID:          d.ID.Hex(),
		ThoughtText: d.ThoughtText,
		Username:    d.Username,
		CreatedAt:   d.CreatedAt,
		Reactions:   make([]models.Reaction, len(d.Reactions)),
	}
	for i, rd := range d.Reactions {
		t.Reactions[i] = models.Reaction{
			ID:           rd.ID.Hex(),
			ReactionBody: rd.ReactionBody,
			Username:     rd.Username,
			CreatedAt:    rd.CreatedAt,
		}
	}
	return t
}

// ThoughtRepository handles the thoughts collection
type ThoughtRepository struct {
	collection *mongo.Collection
}

var _ repository.ThoughtRepository = (*ThoughtRepository)(nil)

// NewThoughtRepository creates a new thought repository
func NewThoughtRepository(db *mongo.Database) *ThoughtRepository {
	return &ThoughtRepository{collection: db.Collection(thoughtsCollection)}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// Create inserts a new thought with an empty reactions array
func (r *ThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	doc := thoughtDoc{
		ID:          primitive.NewObjectID(),
		ThoughtText: thought.ThoughtText,
		Username:    thought.Username,
		CreatedAt:   thought.CreatedAt,
		Reactions:   []reactionDoc{},
	}
	if thought.ID != "" {
		oid, err := objectID(thought.ID)
		if err != nil {
			return err
		}
		doc.ID = oid
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return mapError(err, "thought")
	}
	thought.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves a thought by ID
func (r *ThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc thoughtDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapError(err, "thought")
	}
	return doc.model(), nil
}

func (r *ThoughtRepository) find(ctx context.Context, filter bson.M) ([]*models.Thought, error) {
	cursor, err := r.collection.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to get thoughts: %w", err)
	}
	var docs []thoughtDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode thoughts: %w", err)
	}
	thoughts := make([]*models.Thought, len(docs))
	for i := range docs {
		thoughts[i] = docs[i].model()
	}
	return thoughts, nil
}

// List retrieves thoughts newest first, optionally for one username
func (r *ThoughtRepository) List(ctx context.Context, username string) ([]*models.Thought, error) {
	filter := bson.M{}
	if username != "" {
		filter["username"] = username
	}
	return r.find(ctx, filter)
}

// ListByIDs retrieves existing thoughts among ids, newest first
func (r *ThoughtRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Thought, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

// Delete removes a thought document together with its reactions
func (r *ThoughtRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete thought: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("thought not found: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *ThoughtRepository) update(ctx context.Context, thoughtID string, update bson.M) (*models.Thought, error) {
	oid, err := objectID(thoughtID)
	if err != nil {
		return nil, err
	}
	var doc thoughtDoc
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, afterUpdate()).Decode(&doc)
	if err != nil {
		return nil, mapError(err, "thought")
	}
	return doc.model(), nil
}

// PushReaction appends a reaction, assigning its id
func (r *ThoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction *models.Reaction) (*models.Thought, error) {
	rid := primitive.NewObjectID()
	doc := reactionDoc{
		ID:           rid,
		ReactionBody: reaction.ReactionBody,
		Username:     reaction.Username,
		CreatedAt:    reaction.CreatedAt,
	}
	thought, err := r.update(ctx, thoughtID, bson.M{"$push": bson.M{"reactions": doc}})
	if err != nil {
		return nil, err
	}
	reaction.ID = rid.Hex()
	return thought, nil
}

// PullReaction removes the reaction with the given id
func (r *ThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	rid, err := objectID(reactionID)
	if err != nil {
		// no reaction can match a malformed id
		return r.GetByID(ctx, thoughtID)
	}
	return r.update(ctx, thoughtID, bson.M{"$pull": bson.M{"reactions": bson.M{"_id": rid}}})
}
