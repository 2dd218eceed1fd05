package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrovision/farm-api/internal/core/domain"
)

const auditCollection = "audit_events"

// auditRetention bounds the audit trail via a TTL index.
const auditRetention = 90 * 24 * time.Hour

// AuditRepository is the MongoDB-backed append-only audit trail.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	UserID    string    `bson:"user_id"`
	Action    string    `bson:"action"`
	Detail    string    `bson:"detail,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

// EnsureIndexes creates the user lookup index and the retention TTL index.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := mongoAuditEvent{
		UserID:    event.UserID,
		Action:    string(event.Action),
		Detail:    event.Detail,
		Timestamp: event.Timestamp,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := r.coll.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cur.Close(ctx)

	var events []*domain.AuditEvent
	for cur.Next(ctx) {
		var me mongoAuditEvent
		if err := cur.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, &domain.AuditEvent{
			UserID:    me.UserID,
			Action:    domain.AuditAction(me.Action),
			Detail:    me.Detail,
			Timestamp: me.Timestamp,
		})
	}
	return events, cur.Err()
}
