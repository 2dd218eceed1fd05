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

const departmentCollection = "departments"

// DepartmentRepository is the MongoDB-backed department directory.
type DepartmentRepository struct {
	coll *mongo.Collection
}

func NewDepartmentRepository(db *mongo.Database) *DepartmentRepository {
	return &DepartmentRepository{coll: db.Collection(departmentCollection)}
}

type mongoDepartment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   int64              `bson:"created_at"`
	UpdatedAt   int64              `bson:"updated_at"`
}

func (m *mongoDepartment) toDomain() *domain.Department {
	return &domain.Department{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   unixToTime(m.CreatedAt),
		UpdatedAt:   unixToTime(m.UpdatedAt),
	}
}

// EnsureIndexes creates the unique name index.
func (r *DepartmentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("department indexes: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *domain.Department) (*domain.Department, error) {
	doc := mongoDepartment{
		Name:        dept.Name,
		Description: dept.Description,
		CreatedAt:   dept.CreatedAt.Unix(),
		UpdatedAt:   dept.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDepartmentExists
		}
		return nil, fmt.Errorf("insert department: %w", err)
	}

	created := *dept
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*domain.Department, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer cur.Close(ctx)

	var depts []*domain.Department
	for cur.Next(ctx) {
		var md mongoDepartment
		if err := cur.Decode(&md); err != nil {
			return nil, fmt.Errorf("decode department: %w", err)
		}
		depts = append(depts, md.toDomain())
	}
	return depts, cur.Err()
}

func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*domain.Department, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDepartmentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*domain.Department, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *DepartmentRepository) UpdateDescription(ctx context.Context, id, description string) (*domain.Department, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDepartmentNotFound
	}

	var md mongoDepartment
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"description": description,
			"updated_at":  time.Now().UTC().Unix(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&md)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("update department: %w", err)
	}
	return md.toDomain(), nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrDepartmentNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Department, error) {
	var md mongoDepartment
	if err := r.coll.FindOne(ctx, filter).Decode(&md); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return md.toDomain(), nil
}
