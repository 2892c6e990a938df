package account

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
	// CollectionName is the collection holding account documents.
	CollectionName = "users"
	// EmailIndexName is the unique, case-insensitive index on the email field.
	EmailIndexName = "email_ci_unique"
)

// emailCollation compares strings ignoring case (ICU strength 2).
//
//nolint:gochecknoglobals
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

type accountDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d accountDocument) toAccount() domain.Account {
	return domain.Account{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// MongoAccountRepository implements Repository on MongoDB.
type MongoAccountRepository struct {
	cm  *mongodb.ConnectionManager
	log logging.Logger
}

var _ Repository = (*MongoAccountRepository)(nil)

// MongoAccountRepositoryFactory creates a factory function that returns a new MongoAccountRepository.
func MongoAccountRepositoryFactory(cm *mongodb.ConnectionManager) RepositoryFactory {
	return func(context.Context) (Repository, error) {
		return NewMongoAccountRepository(cm), nil
	}
}

// NewMongoAccountRepository creates a repository on the shared connection.
// No connection is made until the first operation.
func NewMongoAccountRepository(cm *mongodb.ConnectionManager) *MongoAccountRepository {
	return &MongoAccountRepository{
		cm:  cm,
		log: logging.GetLogger("repo.account.mongo_account_repository"),
	}
}

func (r *MongoAccountRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.cm.IndexedCollection(ctx, CollectionName, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName(EmailIndexName).
			SetUnique(true).
			SetCollation(emailCollation),
	})
}

// CreateAccount implements Repository.CreateAccount using MongoDB.
func (r *MongoAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	doc := accountDocument{
		ID:        bson.NewObjectID(),
		Email:     account.Email,
		Password:  account.PasswordHash,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.DebugContext(ctx, "duplicate email rejected by index", "index", EmailIndexName)

			err = errors.Join(domain.ErrDuplicateEmail, err)
		}

		return domain.Account{}, fmt.Errorf("insert account: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	return doc.toAccount(), nil
}

// GetAccountByEmail implements Repository.GetAccountByEmail using MongoDB.
// The lookup uses the index collation so it matches regardless of case.
func (r *MongoAccountRepository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// GetAccountByID implements Repository.GetAccountByID using MongoDB.
func (r *MongoAccountRepository) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.Account{}, errors.Join(domain.ErrAccountNotFound, err)
	}

	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.D) (domain.Account, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	var doc accountDocument

	err = coll.FindOne(ctx, filter, options.FindOne().SetCollation(emailCollation)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Account{}, errors.Join(domain.ErrAccountNotFound, err)
		}

		return domain.Account{}, fmt.Errorf("find account: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	return doc.toAccount(), nil
}

// UpdatePasswordHash implements Repository.UpdatePasswordHash using MongoDB.
func (r *MongoAccountRepository) UpdatePasswordHash(
	ctx context.Context,
	id string,
	passwordHash string,
	updatedAt time.Time,
) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return errors.Join(domain.ErrAccountNotFound, err)
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: updatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update account: %w", r.cm.Classify(ctx, coll.Database().Client(), err))
	}

	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Close implements Repository.Close. The connection is owned by the ConnectionManager.
func (r *MongoAccountRepository) Close() error {
	return nil
}
