package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamStore implements ObjectStore on a NATS JetStream object-store bucket.
type JetStreamStore struct {
	conn  *nats.Conn
	store jetstream.ObjectStore
}

// NewJetStreamStore connects to NATS and opens the bucket, creating it when missing.
func NewJetStreamStore(ctx context.Context, natsURL, bucket string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "Product images",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create object store bucket: %w", err)
		}
	}

	return &JetStreamStore{conn: conn, store: store}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	meta := jetstream.ObjectMeta{
		Name: key,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}
	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store object %q: %w", key, err)
	}
	return key, nil
}

func (s *JetStreamStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// Close drains the NATS connection.
func (s *JetStreamStore) Close() error {
	return s.conn.Drain()
}
