package savegame

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

// JetStreamStorage keeps records in a JetStream key-value bucket, one key per game and empire.
type JetStreamStorage struct {
	kv jetstream.KeyValue
}

var _ Storage = (*JetStreamStorage)(nil)

// NewJetStreamStorage opens the bucket, creating it if it does not exist yet.
func NewJetStreamStorage(ctx context.Context, conn *nats.Conn, bucket string) (*JetStreamStorage, error) {
	if conn == nil {
		return nil, eris.New("NATS connection cannot be nil")
	}
	if bucket == "" {
		return nil, eris.New("bucket name cannot be empty")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create JetStream client")
	}

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "per-player turn orders",
		History:     1,
	})
	if err != nil {
		if !eris.Is(err, jetstream.ErrBucketExists) {
			return nil, eris.Wrapf(err, "failed to create key-value bucket (bucket=%s)", bucket)
		}
		kv, err = js.KeyValue(ctx, bucket)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to get existing key-value bucket (bucket=%s)", bucket)
		}
	}

	return &JetStreamStorage{kv: kv}, nil
}

func jetStreamKey(gameID string, empireID universe.EmpireID) string {
	return fmt.Sprintf("%s.save.%d", gameID, empireID)
}

func (j *JetStreamStorage) Store(ctx context.Context, record *Record) error {
	if err := record.validate(); err != nil {
		return err
	}
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if _, err := j.kv.Put(ctx, jetStreamKey(record.GameID, record.EmpireID), data); err != nil {
		return eris.Wrap(err, "failed to store save record in key-value bucket")
	}
	return nil
}

func (j *JetStreamStorage) Load(ctx context.Context, gameID string, empireID universe.EmpireID) (*Record, error) {
	entry, err := j.kv.Get(ctx, jetStreamKey(gameID, empireID))
	if err != nil {
		if eris.Is(err, jetstream.ErrKeyNotFound) {
			return nil, eris.Wrapf(ErrRecordNotFound, "game %s empire %d", gameID, empireID)
		}
		return nil, eris.Wrap(err, "failed to get save record from key-value bucket")
	}
	return decodeRecord(entry.Value())
}
