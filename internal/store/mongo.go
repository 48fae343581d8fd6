package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	ledgerCollection = "ledger_entries"
)

// MongoStore keeps accounts in a MongoDB database named by the URI path.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	ledger *mongo.Collection
}

func NewMongo(ctx context.Context, uri string) (*MongoStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		dbName = "poker"
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return newMongoStore(ctx, client, client.Database(dbName))
}

func newMongoStore(ctx context.Context, client *mongo.Client, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{client: client, users: db.Collection(usersCollection), ledger: db.Collection(ledgerCollection)}
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Close() {
	_ = s.client.Disconnect(context.Background())
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) EnsureUser(ctx context.Context, address string, initial int64) (User, error) {
	u := newUser(address, initial)
	_, err := s.users.UpdateOne(ctx,
		bson.M{"address": address},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return User{}, err
	}
	return s.GetUser(ctx, address)
}

func (s *MongoStore) GetUser(ctx context.Context, address string) (User, error) {
	var u User
	err := s.users.FindOne(ctx, bson.M{"address": address}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u User) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"address": u.Address},
		bson.M{"$set": bson.M{"name": u.Name, "avatar_url": u.AvatarURL}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Debit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return s.move(ctx, address, -amount, entryType, refID)
}

func (s *MongoStore) Credit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return s.move(ctx, address, amount, entryType, refID)
}

// move relies on a conditional $inc so the balance never goes negative.
func (s *MongoStore) move(ctx context.Context, address string, delta int64, entryType, refID string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	filter := bson.M{"address": address}
	if delta < 0 {
		filter["balance"] = bson.M{"$gte": -delta}
	}
	var u User
	err := s.users.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"balance": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetUser(ctx, address); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, err
	}
	_, err = s.ledger.InsertOne(ctx, LedgerEntry{
		ID:        NewID(),
		Address:   address,
		Type:      entryType,
		Amount:    delta,
		RefID:     refID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}
