package savegame

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/freeorion/orders/pkg/universe"
)

// RedisStorage keeps one string value per game and empire.
type RedisStorage struct {
	client redis.Cmdable
	ttl    time.Duration // zero keeps records forever
	tracer trace.Tracer
}

var _ Storage = (*RedisStorage)(nil)

func NewRedisStorage(client redis.Cmdable, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("savegame.redis"),
	}
}

func redisKey(gameID string, empireID universe.EmpireID) string {
	return fmt.Sprintf("freeorion:%s:save:%d", gameID, empireID)
}

func (r *RedisStorage) Store(ctx context.Context, record *Record) error {
	if err := record.validate(); err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "savegame.redis.store", trace.WithAttributes(
		attribute.String("game_id", record.GameID),
		attribute.Int("empire_id", int(record.EmpireID)),
	))
	defer span.End()

	data, err := encodeRecord(record)
	if err != nil {
		span.SetStatus(codes.Error, "encode")
		span.RecordError(err)
		return err
	}
	if err := r.client.Set(ctx, redisKey(record.GameID, record.EmpireID), data, r.ttl).Err(); err != nil {
		span.SetStatus(codes.Error, "set")
		span.RecordError(err)
		return eris.Wrap(err, "failed to store save record in redis")
	}
	return nil
}

func (r *RedisStorage) Load(ctx context.Context, gameID string, empireID universe.EmpireID) (*Record, error) {
	ctx, span := r.tracer.Start(ctx, "savegame.redis.load", trace.WithAttributes(
		attribute.String("game_id", gameID),
		attribute.Int("empire_id", int(empireID)),
	))
	defer span.End()

	data, err := r.client.Get(ctx, redisKey(gameID, empireID)).Bytes()
	if err != nil {
		if eris.Is(err, redis.Nil) {
			return nil, eris.Wrapf(ErrRecordNotFound, "game %s empire %d", gameID, empireID)
		}
		span.SetStatus(codes.Error, "get")
		span.RecordError(err)
		return nil, eris.Wrap(err, "failed to load save record from redis")
	}
	return decodeRecord(data)
}
