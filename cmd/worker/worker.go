package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	appkafka "example.com/murmurfeed/internal/broker"
	"example.com/murmurfeed/internal/logger"
	"example.com/murmurfeed/internal/models"
	"example.com/murmurfeed/internal/store"
	"github.com/gocql/gocql"
)

var logg = logger.New()

// Worker consumes domain events from Kafka and writes activity
// notifications concurrently. The timeline itself is never materialized
// here; the only derived state this worker produces is notification rows.
type Worker struct {
	store        store.StoreInterface
	reader       appkafka.KafkaReader
	workerCount  int
	jobQueueSize int
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(store store.StoreInterface, reader appkafka.KafkaReader, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		store:        store,
		reader:       reader,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run starts message reading and concurrent processing.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan []byte, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}(i)
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- []byte) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := w.reader.ReadMessage(ctx)
			if err != nil {
				backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
				logg.Error("worker", "Kafka read error, backing off", err)
				if !waitWithContext(ctx, backoff) {
					return
				}
				retry++
				continue
			}
			retry = 0

			if len(msg.Value) == 0 {
				if !waitWithContext(ctx, 50*time.Millisecond) {
					return
				}
				continue
			}

			// Retry until the job fits; a full queue must never drop
			// an event.
			enqueued := false
			for !enqueued {
				select {
				case jobs <- msg.Value:
					enqueued = true
				case <-ctx.Done():
					return
				case <-time.After(100 * time.Millisecond):
					logg.Info("worker", "Queue full, waiting to enqueue Kafka message")
				}
			}
		}
	}
}

// processLoop handles JSON decoding and notification writes concurrently.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-jobs:
			if !ok {
				return
			}

			var ev models.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				logg.Error("worker", "Invalid JSON in Kafka message", err)
				continue
			}

			if err := w.handleEvent(ctx, ev); err != nil {
				logg.Error("worker", "Failed to handle event", err)
			}
		}
	}
}

// handleEvent turns one domain event into notification rows. Murmur
// creation fans out to every follower; follows and likes have a single
// recipient.
func (w *Worker) handleEvent(ctx context.Context, ev models.Event) error {
	switch ev.Kind {
	case models.EventFollowCreated:
		return w.notify(models.Notification{
			UserID:  ev.SubjectID,
			Kind:    models.NotifFollowed,
			ActorID: ev.ActorID,
			Created: ev.Created,
		})

	case models.EventLikeCreated:
		m, err := w.store.MurmurByID(ev.MurmurID)
		if err != nil {
			// Deleted before we got to it; nothing to notify.
			if err == store.ErrMurmurNotFound {
				return nil
			}
			return err
		}
		// A self-like produces no notification.
		if m.AuthorID == ev.ActorID {
			return nil
		}
		return w.notify(models.Notification{
			UserID:   m.AuthorID,
			Kind:     models.NotifLiked,
			ActorID:  ev.ActorID,
			MurmurID: ev.MurmurID,
			Created:  ev.Created,
		})

	case models.EventMurmurCreated:
		return w.fanOut(ctx, ev)

	case models.EventMurmurDeleted:
		// Deletions produce no notifications.
		return nil

	default:
		logg.Info("worker", "Skipping unknown event kind")
		return nil
	}
}

// fanOut notifies every follower of a new murmur with bounded concurrency.
func (w *Worker) fanOut(ctx context.Context, ev models.Event) error {
	followers, err := w.store.FollowerIDs(ev.ActorID)
	if err != nil {
		return err
	}

	const fanoutLimit = 20
	var fanoutWG sync.WaitGroup
	semaphore := make(chan struct{}, fanoutLimit)

	for _, uid := range followers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			fanoutWG.Add(1)
			semaphore <- struct{}{}

			go func(u string) {
				defer fanoutWG.Done()
				defer func() { <-semaphore }()
				err := w.notify(models.Notification{
					UserID:   u,
					Kind:     models.NotifMurmured,
					ActorID:  ev.ActorID,
					MurmurID: ev.MurmurID,
					Created:  ev.Created,
				})
				if err != nil {
					logg.Error("worker", "Failed to write follower notification", err)
				}
			}(uid)
		}
	}

	fanoutWG.Wait()
	logg.Info("worker", "Murmur notifications delivered to followers (IDs anonymized)")
	return nil
}

func (w *Worker) notify(n models.Notification) error {
	n.ID = gocql.TimeUUID().String()
	if n.Created.IsZero() {
		n.Created = time.Now().UTC()
	}
	return w.store.AddNotification(n)
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down Kafka reader and Cassandra session.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}

	logg.Info("worker", "Closing Cassandra session")
	w.store.Close()
	return nil
}
