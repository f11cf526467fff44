package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/service"
)

// BlobRemover deletes a stored file by key.
type BlobRemover interface {
	Remove(key string) error
}

// PurgeQueue pushes storage keys onto the purge queue.
type PurgeQueue struct {
	rdb *redis.Client
}

// NewPurgeQueue creates a new PurgeQueue.
func NewPurgeQueue(rdb *redis.Client) *PurgeQueue {
	return &PurgeQueue{rdb: rdb}
}

// Enqueue schedules keys for removal. No keys is a no-op.
func (q *PurgeQueue) Enqueue(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PurgeStorageQueue, args...).Err()
}

// PurgeWorker consumes purge_storage_queue and deletes the stored files of
// folders and courses that no longer exist.
type PurgeWorker struct {
	rdb     *redis.Client
	store   BlobRemover
	log     zerolog.Logger
	backoff time.Duration
}

// NewPurgeWorker creates a new PurgeWorker.
func NewPurgeWorker(rdb *redis.Client, store BlobRemover, log zerolog.Logger) *PurgeWorker {
	return &PurgeWorker{
		rdb:     rdb,
		store:   store,
		log:     log.With().Str("component", "purge_worker").Logger(),
		backoff: 5 * time.Second,
	}
}

// Start runs until ctx is cancelled, then drains what is left. Call in a
// goroutine; done is closed on return.
func (w *PurgeWorker) Start(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *PurgeWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PurgeStorageQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	key := result[1]
	if err := w.store.Remove(key); err != nil {
		if errors.Is(err, service.ErrInvalidStorageKey) {
			w.log.Warn().Err(err).Str("key", key).Msg("Dropping invalid key")
			return
		}
		w.log.Error().Err(err).Str("key", key).Msg("Remove failed, retrying later")
		w.rdb.RPush(context.Background(), config.WorkerKey.PurgeStorageQueue, key)
		select {
		case <-ctx.Done():
		case <-time.After(w.backoff):
		}
	}
}

// drain removes everything still queued before shutdown.
func (w *PurgeWorker) drain(ctx context.Context) {
	drained := 0
	for {
		key, err := w.rdb.LPop(ctx, config.WorkerKey.PurgeStorageQueue).Result()
		if err != nil {
			break
		}
		if err := w.store.Remove(key); err != nil {
			if errors.Is(err, service.ErrInvalidStorageKey) {
				continue
			}
			w.log.Error().Err(err).Str("key", key).Msg("Drain remove error")
			w.rdb.RPush(ctx, config.WorkerKey.PurgeStorageQueue, key)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
