package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate identifier")
)

// Collection names.
const (
	Brands         = "brands"
	Categories     = "categories"
	Components     = "components"
	ComponentItems = "componentitems"
	Accessories    = "accessories"
)

// CaseInsensitive is the collation used by name indexes and name lookups.
var CaseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// Collection is a typed view of one mongo collection.
type Collection[T any] struct {
	coll *mongo.Collection
}

func NewCollection[T any](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name)}
}

// List returns every document, newest first.
func (r *Collection[T]) List(ctx context.Context) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CountRefs counts documents whose field holds id.
func (r *Collection[T]) CountRefs(ctx context.Context, field string, id primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{field: id})
}

func (r *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Collection[T]) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Insert writes doc. A unique index violation becomes ErrDuplicate.
func (r *Collection[T]) Insert(ctx context.Context, doc *T) error {
	_, err := r.coll.InsertOne(ctx, doc)
	return translateWriteErr(err)
}

// Replace overwrites the stored document with doc.
func (r *Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translateWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Names maps ids to the value of nameField, for populating references.
func (r *Collection[T]) Names(ctx context.Context, nameField string, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{nameField: 1})
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row bson.M
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		id, _ := row["_id"].(primitive.ObjectID)
		name, _ := row[nameField].(string)
		names[id] = name
	}
	return names, cursor.Err()
}

// Conflict looks for another document holding value in field. It returns
// the display value of the match, or found=false.
func (r *Collection[T]) Conflict(ctx context.Context, field, value, displayField string, caseInsensitive bool, exclude *primitive.ObjectID) (string, bool, error) {
	filter := bson.M{field: value}
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	opts := options.FindOne().SetProjection(bson.M{field: 1, displayField: 1})
	if caseInsensitive {
		opts.SetCollation(CaseInsensitive)
	}

	var row bson.M
	err := r.coll.FindOne(ctx, filter, opts).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("identifier lookup failed: %w", err)
	}
	name, _ := row[displayField].(string)
	if name == "" {
		name, _ = row[field].(string)
	}
	return name, true, nil
}

// Distinct returns the values of a string (or string array) field across
// the collection. Used by the orphan sweeper.
func (r *Collection[T]) Distinct(ctx context.Context, field string) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
