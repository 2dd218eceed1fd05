package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrovision/farm-api/internal/core/domain"
)

const userCollection = "users"

// UserRepository is the MongoDB-backed credential store.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	DepartmentID string             `bson:"department_id,omitempty"`
	UserType     string             `bson:"user_type"`
	RefreshToken string             `bson:"refresh_token,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (m *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID.Hex(),
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		DepartmentID: m.DepartmentID,
		UserType:     domain.UserType(m.UserType),
		RefreshToken: m.RefreshToken,
		CreatedAt:    unixToTime(m.CreatedAt),
		UpdatedAt:    unixToTime(m.UpdatedAt),
	}
}

// EnsureIndexes creates the unique indexes backing the duplicate-user check.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		DepartmentID: user.DepartmentID,
		UserType:     string(user.UserType),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.findMany(ctx, bson.M{})
}

func (r *UserRepository) ListByDepartment(ctx context.Context, departmentID string) ([]*domain.User, error) {
	return r.findMany(ctx, bson.M{"department_id": departmentID})
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID, token string) (*domain.User, error) {
	if token == "" {
		return r.updateOne(ctx, userID, bson.M{
			"$unset": bson.M{"refresh_token": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC().Unix()},
		})
	}
	return r.setFields(ctx, userID, bson.M{"refresh_token": token})
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	return r.setFields(ctx, userID, bson.M{"role": string(role)})
}

func (r *UserRepository) UpdateDepartment(ctx context.Context, userID, departmentID string) (*domain.User, error) {
	if departmentID == "" {
		return r.updateOne(ctx, userID, bson.M{
			"$unset": bson.M{"department_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC().Unix()},
		})
	}
	return r.setFields(ctx, userID, bson.M{"department_id": departmentID})
}

func (r *UserRepository) UpdateUserType(ctx context.Context, userID string, userType domain.UserType) (*domain.User, error) {
	return r.setFields(ctx, userID, bson.M{"user_type": string(userType)})
}

func (r *UserRepository) ClearDepartment(ctx context.Context, departmentID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"department_id": departmentID},
		bson.M{
			"$unset": bson.M{"department_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC().Unix()},
		},
	)
	if err != nil {
		return fmt.Errorf("clear department refs: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	return users, cur.Err()
}

func (r *UserRepository) setFields(ctx context.Context, userID string, fields bson.M) (*domain.User, error) {
	fields["updated_at"] = time.Now().UTC().Unix()
	return r.updateOne(ctx, userID, bson.M{"$set": fields})
}

func (r *UserRepository) updateOne(ctx context.Context, userID string, update bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
