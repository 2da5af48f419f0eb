package templates

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mockup/pkg/errors"
)

// mongoTemplate is the stored document shape.
type mongoTemplate struct {
	ID      any      `bson:"_id"`
	Name    string   `bson:"name"`
	Preview string   `bson:"preview,omitempty"`
	Data    bson.Raw `bson:"data,omitempty"`
}

// MongoStore reads templates from a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses database.collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect its client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// List implements Store. Templates are ordered by name.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"data": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list templates")
	}
	var docs []mongoTemplate
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list templates")
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = d.summary()
	}
	return out, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*Template, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "template id is required")
	}
	var doc mongoTemplate
	err := s.coll.FindOne(ctx, idFilter(id)).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "template %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "get template %s", id)
	}
	return doc.template()
}

// Close implements Store.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// idFilter matches id as an ObjectID when it parses as one, and as a plain
// string id otherwise.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func (d mongoTemplate) summary() Summary {
	return Summary{ID: idString(d.ID), Name: d.Name, Preview: d.Preview}
}

func (d mongoTemplate) template() (*Template, error) {
	t := &Template{Summary: d.summary()}
	if len(d.Data) == 0 {
		return t, nil
	}
	data, err := bson.MarshalExtJSON(d.Data, false, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "template %s data", t.ID)
	}
	t.Data = data
	return t, nil
}
