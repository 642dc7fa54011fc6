package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

type AdminStore struct {
	coll *mongo.Collection
}

func (s *AdminStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{})
	return n, translate(err, "count admins")
}

func (s *AdminStore) Create(ctx context.Context, a *models.Admin) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Username = strings.ToLower(strings.TrimSpace(a.Username))
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = models.AdminActive
	}

	_, err := s.coll.InsertOne(ctx, a)
	return translate(err, "insert admin "+a.Username)
}

func (s *AdminStore) Get(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Admin
	err := s.coll.FindOne(ctx, byID(id)).Decode(&a)
	return a, translate(err, "admin "+id.Hex())
}

// FindByLogin matches either the email or the username.
func (s *AdminStore) FindByLogin(ctx context.Context, login string) (models.Admin, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	login = strings.ToLower(strings.TrimSpace(login))
	var a models.Admin
	err := s.coll.FindOne(ctx, bson.M{"$or": []bson.M{
		{"email": login},
		{"username": login},
	}}).Decode(&a)
	return a, translate(err, "admin "+login)
}

// RecordLoginFailure increments loginAttempts in place and sets lockUntil
// when the post-increment count reaches maxAttempts and no lock is running.
func (s *AdminStore) RecordLoginFailure(ctx context.Context, id primitive.ObjectID, now time.Time, maxAttempts int, lockFor time.Duration) (models.Admin, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"loginAttempts": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$loginAttempts", 0}}, 1}},
		}}},
		{{Key: "$set", Value: bson.M{
			"lockUntil": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gte": bson.A{"$loginAttempts", maxAttempts}},
					bson.M{"$not": bson.A{bson.M{"$gt": bson.A{"$lockUntil", now}}}},
				}},
				now.Add(lockFor),
				bson.M{"$ifNull": bson.A{"$lockUntil", nil}},
			}},
		}}},
	}

	var a models.Admin
	err := s.coll.FindOneAndUpdate(ctx, byID(id), pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	return a, translate(err, "record login failure")
}

func (s *AdminStore) RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"lastLogin": now, "loginAttempts": 0},
		"$unset": bson.M{"lockUntil": ""},
	})
}

func (s *AdminStore) ClearLoginLock(ctx context.Context, id primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"loginAttempts": 0},
		"$unset": bson.M{"lockUntil": ""},
	})
}

func (s *AdminStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
}

// UpdateProfile sets the self-editable fields of an admin.
func (s *AdminStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Admin, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields["updatedAt"] = time.Now().UTC()
	var a models.Admin
	err := s.coll.FindOneAndUpdate(ctx, byID(id), bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	return a, translate(err, "update admin "+id.Hex())
}

func (s *AdminStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return translate(err, "update admin")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("admin %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}
