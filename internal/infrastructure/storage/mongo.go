package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cancaonovachor/nova-internal-tools/internal/config"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

const mongoOpTimeout = 10 * time.Second

// MongoStore keeps the history inside a single document under a fixed _id.
// Saves use a $set upsert so sibling fields on the document survive. The
// client dials lazily on first use and is reused until Close.
type MongoStore struct {
	cfg    config.MongoHistoryConfig
	logger *slog.Logger

	connectOnce sync.Once
	connectErr  error
	client      *mongo.Client
	collection  *mongo.Collection
}

var _ ports.HistoryStore = (*MongoStore)(nil)

// NewMongoStore wires the document coordinates; no connection is made yet.
func NewMongoStore(cfg config.MongoHistoryConfig, logger *slog.Logger) *MongoStore {
	return &MongoStore{cfg: cfg, logger: logger}
}

type historyDocument struct {
	ProcessedLinks []string `bson:"processed_links"`
}

// Load fetches the history document. Absence is a normal first run.
func (s *MongoStore) Load(ctx context.Context) []string {
	if err := s.connect(ctx); err != nil {
		s.warn("history unavailable, starting empty", "error", err)
		return []string{}
	}

	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc historyDocument
	err := s.collection.FindOne(opCtx, bson.M{"_id": s.cfg.DocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}
	}
	if err != nil {
		s.warn("history read failed, starting empty", "error", err)
		return []string{}
	}

	if doc.ProcessedLinks == nil {
		return []string{}
	}
	return doc.ProcessedLinks
}

// Save upserts the trimmed history into the document.
func (s *MongoStore) Save(ctx context.Context, history []string, maxItems int) {
	if err := s.connect(ctx); err != nil {
		s.warn("history save skipped", "error", err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{"_id": s.cfg.DocumentID}
	update := bson.M{"$set": bson.M{"processed_links": tail(history, maxItems)}}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(opCtx, filter, update, opts); err != nil {
		s.warn("history save failed", "error", err)
	}
}

// Close releases the client. Safe to call when no connection was ever made.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()
	return s.client.Disconnect(disconnectCtx)
}

func (s *MongoStore) connect(ctx context.Context) error {
	s.connectOnce.Do(func() {
		dialCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
		defer cancel()

		client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(s.cfg.URI))
		if err != nil {
			s.connectErr = fmt.Errorf("connect mongodb: %w", err)
			return
		}

		if err := client.Ping(dialCtx, nil); err != nil {
			s.connectErr = fmt.Errorf("ping mongodb: %w", err)
			return
		}

		s.client = client
		s.collection = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	})
	return s.connectErr
}

func (s *MongoStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
