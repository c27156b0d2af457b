package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already registered")
)

const Users = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(Users)}
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update replaces the stored document. The refresh token fields are left
// alone; they are only written through the token methods.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	set := bson.M{
		"email":          user.Email,
		"name":           user.Name,
		"role":           user.Role,
		"provider":       user.Provider,
		"contactNumbers": user.ContactNumbers,
		"addresses":      user.Addresses,
		"updatedAt":      user.UpdatedAt,
	}
	unset := bson.M{}
	for field, value := range map[string]string{
		"password":     user.Password,
		"googleId":     user.GoogleID,
		"profileImage": user.ProfileImage,
	} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateByID(ctx, user.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores a new refresh token hash unconditionally.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"refreshToken":       hash,
		"refreshTokenExpiry": expiry,
	}})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken swaps oldHash for newHash. It fails with ErrNotFound
// when the stored hash has already moved on, so each token is single use.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, oldHash, newHash string, expiry time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": oldHash},
		bson.M{"$set": bson.M{"refreshToken": newHash, "refreshTokenExpiry": expiry}},
	)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$unset": bson.M{
		"refreshToken":       "",
		"refreshTokenExpiry": "",
	}})
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}
