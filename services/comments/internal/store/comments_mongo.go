package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// commentDoc is the stored document shape. Exactly one of Video/Tweet is set.
type commentDoc struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	AuthorID  string    `bson:"owner"`
	Video     string    `bson:"video,omitempty"`
	Tweet     string    `bson:"tweet,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d commentDoc) comment() Comment {
	c := Comment{
		ID:        d.ID,
		Content:   d.Content,
		AuthorID:  d.AuthorID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.Video != "" {
		c.Parent = VideoRef(d.Video)
	} else {
		c.Parent = TweetRef(d.Tweet)
	}
	return c
}

func parentFilter(p ParentRef) (bson.D, error) {
	switch p.Kind {
	case ParentVideo:
		return bson.D{{Key: "video", Value: p.ID}}, nil
	case ParentTweet:
		return bson.D{{Key: "tweet", Value: p.ID}}, nil
	}
	return nil, ErrInvalidParent
}

// MongoCommentStore persists comments in a MongoDB collection.
type MongoCommentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

func NewMongoCommentStore(client *mongo.Client, database string) *MongoCommentStore {
	return &MongoCommentStore{
		client: client,
		coll:   client.Database(database).Collection("comments"),
		// Mongo stores milliseconds; truncate so returned values match reads.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the per-parent listing indexes.
func (s *MongoCommentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "video", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.D{{Key: "video", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
		{
			Keys:    bson.D{{Key: "tweet", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.D{{Key: "tweet", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
	})
	return err
}

func (s *MongoCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	now := s.now()
	doc := commentDoc{
		ID:        uuid.New().String(),
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch c.Parent.Kind {
	case ParentVideo:
		doc.Video = c.Parent.ID
	case ParentTweet:
		doc.Tweet = c.Parent.ID
	default:
		return Comment{}, ErrInvalidParent
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return Comment{}, err
	}
	return doc.comment(), nil
}

func (s *MongoCommentStore) FindByID(ctx context.Context, id string) (Comment, error) {
	var doc commentDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	return doc.comment(), nil
}

func (s *MongoCommentStore) UpdateContent(ctx context.Context, id, content string) (Comment, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "updated_at", Value: s.now()},
	}}}
	var doc commentDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	return doc.comment(), nil
}

func (s *MongoCommentStore) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoCommentStore) CountByParent(ctx context.Context, parent ParentRef) (int64, error) {
	filter, err := parentFilter(parent)
	if err != nil {
		return 0, err
	}
	return s.coll.CountDocuments(ctx, filter)
}

func (s *MongoCommentStore) ListByParent(ctx context.Context, parent ParentRef, offset, limit int) ([]Comment, error) {
	filter, err := parentFilter(parent)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Comment{}
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.comment())
	}
	return out, cur.Err()
}

func (s *MongoCommentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
