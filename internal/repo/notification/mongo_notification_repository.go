package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/mongodb"
)

const (
	// CollectionName is the collection holding notification documents.
	CollectionName = "notifications"
	// RecipientIndexName serves newest-first listing per recipient.
	RecipientIndexName = "to_createdAt"
)

type notificationDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	From      bson.ObjectID `bson:"from"`
	To        bson.ObjectID `bson:"to"`
	Type      string        `bson:"type"`
	Read      bool          `bson:"read"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d notificationDocument) toNotification() domain.Notification {
	return domain.Notification{
		ID:        d.ID.Hex(),
		From:      d.From.Hex(),
		To:        d.To.Hex(),
		Type:      domain.NotificationType(d.Type),
		Read:      d.Read,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoNotificationRepository implements Repository on MongoDB.
// Sender and recipient are stored as references to account document ids.
type MongoNotificationRepository struct {
	cm  *mongodb.ConnectionManager
	log logging.Logger
}

var _ Repository = (*MongoNotificationRepository)(nil)

// MongoNotificationRepositoryFactory creates a factory function that returns a new MongoNotificationRepository.
func MongoNotificationRepositoryFactory(cm *mongodb.ConnectionManager) RepositoryFactory {
	return func(context.Context) (Repository, error) {
		return NewMongoNotificationRepository(cm), nil
	}
}

// NewMongoNotificationRepository creates a repository on the shared connection.
func NewMongoNotificationRepository(cm *mongodb.ConnectionManager) *MongoNotificationRepository {
	return &MongoNotificationRepository{
		cm:  cm,
		log: logging.GetLogger("repo.notification.mongo_notification_repository"),
	}
}

func (r *MongoNotificationRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.cm.IndexedCollection(ctx, CollectionName, mongo.IndexModel{
		Keys:    bson.D{{Key: "to", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName(RecipientIndexName),
	})
}

func accountRef(field, id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, errors.Join(domain.NewValidationError(field+" is not a valid account id"), err)
	}

	return oid, nil
}

// CreateNotification implements Repository.CreateNotification using MongoDB.
func (r *MongoNotificationRepository) CreateNotification(
	ctx context.Context,
	n domain.Notification,
) (domain.Notification, error) {
	from, err := accountRef("from", n.From)
	if err != nil {
		return domain.Notification{}, err
	}

	to, err := accountRef("to", n.To)
	if err != nil {
		return domain.Notification{}, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Notification{}, err
	}

	doc := notificationDocument{
		ID:        bson.NewObjectID(),
		From:      from,
		To:        to,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return domain.Notification{}, fmt.Errorf("insert notification: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	r.log.DebugContext(ctx, "notification stored", "id", doc.ID.Hex())

	return doc.toNotification(), nil
}

// ListForRecipient implements Repository.ListForRecipient using MongoDB.
func (r *MongoNotificationRepository) ListForRecipient(
	ctx context.Context,
	to string,
	unreadOnly bool,
	limit int,
) ([]domain.Notification, error) {
	recipient, err := accountRef("to", to)
	if err != nil {
		return nil, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "to", Value: recipient}}
	if unreadOnly {
		filter = append(filter, bson.E{Key: "read", Value: false})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, doc.toNotification())
	}

	return notifications, nil
}

// MarkRead implements Repository.MarkRead using MongoDB.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id string, updatedAt time.Time) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return errors.Join(domain.ErrNotificationNotFound, err)
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "read", Value: true},
			{Key: "updatedAt", Value: updatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// Close implements Repository.Close. The connection is owned by the ConnectionManager.
func (r *MongoNotificationRepository) Close() error {
	return nil
}
