package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoChecker looks ids up in a parent collection keyed by string _id.
type MongoChecker struct {
	coll *mongo.Collection
}

func NewMongoChecker(db *mongo.Database, collection string) *MongoChecker {
	return &MongoChecker{coll: db.Collection(collection)}
}

func (c *MongoChecker) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
