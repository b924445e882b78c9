package state

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"glowing-telegram/internal/domain"

	"github.com/redis/go-redis/v9"
)

const stateKey = "sentinel:state"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps the state document under a single Redis key, for
// deployments where the job has no stable disk between invocations. Redis
// SET replaces the value atomically, which satisfies the same
// all-or-nothing contract as the file store's rename.
type RedisStore struct {
	client RedisClient
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) *domain.StateDocument {
	data, err := s.client.Get(ctx, stateKey).Bytes()
	if err == redis.Nil {
		return domain.NewStateDocument()
	}
	if err != nil {
		log.Printf("state: redis read failed, starting fresh: %v", err)
		return domain.NewStateDocument()
	}

	var doc domain.StateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("state: redis value unreadable, starting fresh: %v", err)
		return domain.NewStateDocument()
	}
	if doc.SchemaVersion != domain.SchemaVersion {
		log.Printf("state: redis value has schema version %d, want %d, starting fresh", doc.SchemaVersion, domain.SchemaVersion)
		return domain.NewStateDocument()
	}
	if doc.Coins == nil {
		doc.Coins = make(map[string]*domain.CoinState)
	}
	return &doc
}

func (s *RedisStore) Save(ctx context.Context, doc *domain.StateDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey, data, 0).Err()
}
