// cmd/archivist/main.go is an asynchronous archivist service that pops
// message records from a Redis queue and persists them to the
// message_archive table in batches.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/nwatts/liftlog/internal/cache"
	"github.com/nwatts/liftlog/internal/database"
)

// ArchivistService encapsulates the Redis + DB logic for archiving chat
// messages and trimming archive rows past the retention window.
type ArchivistService struct {
	redisClient *redis.Client
	pool        *pgxpool.Pool
	batchSize   int
	flushDelay  time.Duration
	retention   time.Duration

	batchMu  sync.Mutex
	batch    []cache.MessageArchiveRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewArchivistService constructs an ArchivistService from environment
// variables or defaults.
func NewArchivistService() *ArchivistService {
	batchSize := cache.GetEnvInt("ARCHIVIST_BATCH_SIZE", 20)
	flushMs := cache.GetEnvInt("ARCHIVIST_FLUSH_MS", 500)
	retentionDays := cache.GetEnvInt("ARCHIVE_RETENTION_DAYS", 365)

	rdb := redis.NewClient(&redis.Options{
		Addr: cache.GetEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &ArchivistService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		retention:   time.Duration(retentionDays) * 24 * time.Hour,
		batch:       make([]cache.MessageArchiveRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run starts the two main loops:
//  1. A loop that reads from the Redis queue, accumulates records in a batch,
//     and flushes them to the DB.
//  2. A periodic retention sweep that deletes archive rows past the window.
func (as *ArchivistService) Run() error {
	pool, err := database.Connect(as.ctx)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	as.pool = pool

	go as.readRedisLoop()
	go as.retentionLoop()

	log.Println("liftlog-archivist service started.")
	<-as.ctx.Done()
	log.Println("liftlog-archivist shutting down.")
	return nil
}

// readRedisLoop continuously uses BLPop to retrieve records from the Redis
// queue.
func (as *ArchivistService) readRedisLoop() {
	ticker := time.NewTicker(as.flushDelay)
	defer ticker.Stop()

	queueName := cache.GetEnv("ARCHIVE_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-as.ctx.Done():
			return

		case <-ticker.C:
			as.flushBatchToDB()

		default:
			// BLPop with a 3-second timeout so context cancellation is handled.
			res, err := as.redisClient.BLPop(as.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.MessageArchiveRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid archive record: %v\n", err)
				continue
			}

			as.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the
// threshold is reached.
func (as *ArchivistService) appendToBatch(record cache.MessageArchiveRecord) {
	as.batchMu.Lock()
	defer as.batchMu.Unlock()

	as.batch = append(as.batch, record)
	if len(as.batch) >= as.batchSize {
		as.flushLocked()
	}
}

// flushBatchToDB flushes the current batch to the database in a single
// transaction.
func (as *ArchivistService) flushBatchToDB() {
	as.batchMu.Lock()
	defer as.batchMu.Unlock()
	as.flushLocked()
}

func (as *ArchivistService) flushLocked() {
	if len(as.batch) == 0 {
		return
	}
	batchCopy := make([]cache.MessageArchiveRecord, len(as.batch))
	copy(batchCopy, as.batch)
	as.batch = as.batch[:0]

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, as.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO message_archive (message_id, sender_id, receiver_id, message_text, sent_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, rec := range batchCopy {
			if _, err := tx.Exec(ctx, q, rec.MessageID, rec.SenderID, rec.ReceiverID, rec.Body, rec.SentAt); err != nil {
				return fmt.Errorf("insert archive row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flushBatchToDB: %v\n", err)
	} else {
		log.Printf("Flushed %d messages to archive.\n", len(batchCopy))
	}
}

// retentionLoop periodically deletes archive rows older than the retention
// window.
func (as *ArchivistService) retentionLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-as.ctx.Done():
			return

		case <-ticker.C:
			cutoff := time.Now().Add(-as.retention)
			tag, err := as.pool.Exec(context.Background(),
				`DELETE FROM message_archive WHERE archived_at < $1`, cutoff)
			if err != nil {
				log.Printf("[ERROR] retention sweep: %v\n", err)
				continue
			}
			if tag.RowsAffected() > 0 {
				log.Printf("Retention sweep removed %d archive rows.\n", tag.RowsAffected())
			}
		}
	}
}

// Stop gracefully stops the archivist service.
func (as *ArchivistService) Stop() {
	as.flushBatchToDB()
	as.cancelFn()
}

func main() {
	as := NewArchivistService()
	go func() {
		if err := as.Run(); err != nil {
			log.Fatalf("archivist: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	as.Stop()
	log.Println("Archivist shutdown complete.")
}
