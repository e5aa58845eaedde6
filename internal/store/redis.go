// internal/store/redis.go
//
// Redis implementation of Store, for running several server instances.
//
// Keys:
//   hangman:game:{id}    JSON-encoded game.Game, expires after the TTL
//   hangman:owner:{uid}  id of the user's current game
//
// Update uses WATCH/MULTI and retries when another writer got there first.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/robalobadob/hangman/internal/game"
)

var tracer = otel.Tracer("store")

const maxUpdateRetries = 10

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore constructs a Store on rdb. ttl <= 0 keeps games until discarded.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl < 0 {
		ttl = 0 // go-redis reads a negative expiration as KEEPTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func gameKey(id string) string { return "hangman:game:" + id }
func ownerKey(userID int64) string { return "hangman:owner:" + strconv.FormatInt(userID, 10) }

func (r *redisStore) Create(ctx context.Context, g *game.Game) error {
	ctx, span := tracer.Start(ctx, "GameStore.Create")
	defer span.End()

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	owner := ownerKey(g.UserID)

	txf := func(tx *redis.Tx) error {
		prev, err := tx.Get(ctx, owner).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prev != "" {
				pipe.Del(ctx, gameKey(prev))
			}
			pipe.Set(ctx, gameKey(g.ID), data, r.ttl)
			pipe.Set(ctx, owner, g.ID, r.ttl)
			return nil
		})
		return err
	}
	return r.watch(ctx, txf, owner)
}

func (r *redisStore) Get(ctx context.Context, id string) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameStore.Get")
	defer span.End()

	data, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &g, nil
}

func (r *redisStore) Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error) {
	ctx, span := tracer.Start(ctx, "GameStore.Update")
	defer span.End()

	key := gameKey(id)
	var out *game.Game
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var g game.Game
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("unmarshal game: %w", err)
		}
		if err := fn(&g); err != nil {
			return err
		}
		next, err := json.Marshal(&g)
		if err != nil {
			return fmt.Errorf("marshal game: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			if r.ttl > 0 {
				// EXPIRE 0 would delete the owner key.
				pipe.Expire(ctx, ownerKey(g.UserID), r.ttl)
			}
			return nil
		})
		if err == nil {
			out = &g
		}
		return err
	}
	if err := r.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *redisStore) Active(ctx context.Context, userID int64) (string, error) {
	ctx, span := tracer.Start(ctx, "GameStore.Active")
	defer span.End()

	id, err := r.rdb.Get(ctx, ownerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *redisStore) Discard(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "GameStore.Discard")
	defer span.End()

	owner := ownerKey(userID)
	txf := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, owner).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, gameKey(id), owner)
			return nil
		})
		return err
	}
	return r.watch(ctx, txf, owner)
}

// watch runs txf under WATCH on keys, retrying when the transaction aborts.
func (r *redisStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrConflict
}
