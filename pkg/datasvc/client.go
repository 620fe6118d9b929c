package datasvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides namespace-scoped Redis operations for the data service.
// All keys and channels are automatically prefixed with the namespace.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb       *redis.Client
	namespace string
	retry     RetryPolicy
}

// NewClient creates a data-service client for the given namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - namespace: project namespace (must not be empty)
//
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		retry:     DefaultRetryPolicy(),
	}, nil
}

// SetRetryPolicy replaces the retry policy applied to transient Redis failures.
// Call before the client is shared between goroutines.
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// Namespace returns the namespace the client is scoped to.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return retry(ctx, c.retry, func() error {
		return c.rdb.Ping(ctx).Err()
	})
}

// CreateRecord issues a new id and stores a record under it.
// Every dependency must already exist.
func (c *Client) CreateRecord(ctx context.Context, collection, title string, metadata map[string]any, deps []Dependency) (string, error) {
	now := time.Now().UnixMilli()
	r := &Record{
		ID:           NewRecordID(),
		Title:        title,
		Collection:   collection,
		Metadata:     metadata,
		Dependencies: deps,
		CreatedAtMs:  now,
		UpdatedAtMs:  now,
	}
	if err := c.PutRecord(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

// PutRecord writes a record and its indexes in one transaction, then publishes
// a created event on flowlog:{namespace}:record_events.
func (c *Client) PutRecord(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	for _, dep := range r.Dependencies {
		exists, err := c.RecordExists(ctx, dep.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("dependency %s does not exist", dep.ID)
		}
	}

	hash, err := RecordToHash(r)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	err = retry(ctx, c.retry, func() error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, RecordKey(c.namespace, r.ID), hash)
			pipe.ZAdd(ctx, CollectionKey(c.namespace, r.Collection), redis.Z{
				Score:  float64(r.CreatedAtMs),
				Member: r.ID,
			})
			pipe.HSet(ctx, TitleIndexKey(c.namespace, r.Collection), r.Title, r.ID)
			pipe.ZAdd(ctx, TitleKey(c.namespace, r.Collection, r.Title), redis.Z{
				Score:  float64(r.CreatedAtMs),
				Member: r.ID,
			})
			for _, dep := range r.Dependencies {
				pipe.SAdd(ctx, DerivedKey(c.namespace, dep.ID), r.ID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write record to Redis: %w", err)
	}

	return c.publish(ctx, RecordEventCreated, r)
}

// GetRecord retrieves a record by ID.
// Returns (nil, redis.Nil) if the record doesn't exist; use IsNotFound() to check.
func (c *Client) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	key := RecordKey(c.namespace, recordID)

	var hashData map[string]string
	err := retry(ctx, c.retry, func() error {
		var err error
		hashData, err = c.rdb.HGetAll(ctx, key).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read record from Redis: %w", err)
	}

	// HGetAll returns an empty map for missing keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	record, err := HashToRecord(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return record, nil
}

// RecordExists checks if a record exists without fetching it.
func (c *Client) RecordExists(ctx context.Context, recordID string) (bool, error) {
	var n int64
	err := retry(ctx, c.retry, func() error {
		var err error
		n, err = c.rdb.Exists(ctx, RecordKey(c.namespace, recordID)).Result()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return n > 0, nil
}

// FindRecord returns the id of the most recent record with the given title in a collection.
// Returns ("", redis.Nil) when there is none.
func (c *Client) FindRecord(ctx context.Context, collection, title string) (string, error) {
	var id string
	err := retry(ctx, c.retry, func() error {
		var err error
		id, err = c.rdb.HGet(ctx, TitleIndexKey(c.namespace, collection), title).Result()
		return err
	})
	if err != nil {
		if IsNotFound(err) {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to look up record %q: %w", title, err)
	}
	return id, nil
}

// FindRecordWithKey returns the most recent record titled title in a
// collection whose metadata has the top-level key. Records of another kind
// sharing the title are passed over. Returns (nil, redis.Nil) when there is none.
func (c *Client) FindRecordWithKey(ctx context.Context, collection, title, key string) (*Record, error) {
	var ids []string
	err := retry(ctx, c.retry, func() error {
		var err error
		// Newest first
		ids, err = c.rdb.ZRevRange(ctx, TitleKey(c.namespace, collection, title), 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up record %q: %w", title, err)
	}

	for _, id := range ids {
		r, err := c.GetRecord(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if _, ok := r.Metadata[key]; ok {
			return r, nil
		}
	}
	return nil, redis.Nil
}

// UpdateMetadata merges patch into the record's top-level metadata keys.
func (c *Client) UpdateMetadata(ctx context.Context, recordID string, patch map[string]any) error {
	r, err := c.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	for k, v := range patch {
		r.Metadata[k] = v
	}
	r.UpdatedAtMs = time.Now().UnixMilli()

	metadataJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	err = retry(ctx, c.retry, func() error {
		return c.rdb.HSet(ctx, RecordKey(c.namespace, recordID),
			"metadata", string(metadataJSON),
			"updated_at_ms", r.UpdatedAtMs,
		).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to update record metadata: %w", err)
	}

	return c.publish(ctx, RecordEventUpdated, r)
}

// ListRecords returns every record in a collection, oldest first.
func (c *Client) ListRecords(ctx context.Context, collection string) ([]*Record, error) {
	var ids []string
	err := retry(ctx, c.retry, func() error {
		var err error
		ids, err = c.rdb.ZRange(ctx, CollectionKey(c.namespace, collection), 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := c.GetRecord(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// DerivedRecords returns the ids of records that list recordID as a dependency, sorted.
func (c *Client) DerivedRecords(ctx context.Context, recordID string) ([]string, error) {
	var ids []string
	err := retry(ctx, c.retry, func() error {
		var err error
		ids, err = c.rdb.SMembers(ctx, DerivedKey(c.namespace, recordID)).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read derived records: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// ScanRecordIDs walks every record key in the namespace with SCAN.
func (c *Client) ScanRecordIDs(ctx context.Context) ([]string, error) {
	prefix := RecordKey(c.namespace, "")
	iter := c.rdb.Scan(ctx, 0, RecordKeyPattern(c.namespace), 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// RecordEventKind distinguishes events on the record channel.
type RecordEventKind string

const (
	RecordEventCreated  RecordEventKind = "created"
	RecordEventUpdated  RecordEventKind = "updated"
	RecordEventUploaded RecordEventKind = "uploaded"
)

// RecordEvent is published whenever a record changes.
type RecordEvent struct {
	Kind   RecordEventKind `json:"kind"`
	Record *Record         `json:"record"`
}

func (c *Client) publish(ctx context.Context, kind RecordEventKind, r *Record) error {
	payload, err := json.Marshal(RecordEvent{Kind: kind, Record: r})
	if err != nil {
		return fmt.Errorf("failed to marshal record event: %w", err)
	}

	err = retry(ctx, c.retry, func() error {
		return c.rdb.Publish(ctx, RecordEventsChannel(c.namespace), payload).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to publish record event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to record events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *RecordEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of record events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *RecordEvent {
	return s.events
}

// Errors returns the channel of non-fatal subscription errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeRecordEvents subscribes to record events for this namespace.
// Events are delivered on a buffered channel (size 10); Redis Pub/Sub is
// at-most-once, so slow subscribers may miss events.
func (c *Client) SubscribeRecordEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, RecordEventsChannel(c.namespace))

	// Wait for the subscription to be confirmed so no event published after
	// this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to record events: %w", err)
	}

	eventsChan := make(chan *RecordEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event RecordEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal record event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
