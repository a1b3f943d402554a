package pharmacy

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scansCollection = "scans"

type repoMongo struct{ coll *mongo.Collection }

// NewRepoMongo returns a Mongo-backed scan repository.
func NewRepoMongo(db *mongo.Database) ScanRepository {
	return &repoMongo{coll: db.Collection(scansCollection)}
}

func (r *repoMongo) Insert(ctx context.Context, s *Scan) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*Scan, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrScanNotFound
	}
	var s Scan
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoMongo) Latest(ctx context.Context) (*Scan, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var s Scan
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoMongo) SetApproved(ctx context.Context, id, status string, approved []ApprovedMedicine) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrScanNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"status":             status,
		"approved_medicines": approved,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (r *repoMongo) List(ctx context.Context, limit, offset int) ([]*Scan, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []*Scan
	for cur.Next(ctx) {
		var s Scan
		if err := cur.Decode(&s); err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, int(total), cur.Err()
}
