package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeWatcher reports which collections changed. It uses change streams when the
// deployment supports them and falls back to polling otherwise.
type ChangeWatcher struct {
	Database     *mongo.Database
	PollInterval time.Duration

	mu      sync.Mutex
	resume  bson.Raw
	started bool
}

// NewChangeWatcher creates a watcher over the store's database.
func NewChangeWatcher(store *MongoStore, pollInterval time.Duration) *ChangeWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &ChangeWatcher{Database: store.Database, PollInterval: pollInterval}
}

func (w *ChangeWatcher) state() (bson.Raw, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resume, w.started
}

func (w *ChangeWatcher) setResume(token bson.Raw) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resume = token
}

// Watch calls changed with a collection name every time a document of that collection
// is written. It blocks until ctx is done and returns an error when the stream breaks.
// The next call resumes after the last event seen. Deployments without change streams
// are polled instead.
func (w *ChangeWatcher) Watch(ctx context.Context, collections []string, changed func(collection string)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "ns.coll", Value: bson.D{{Key: "$in", Value: collections}}}}}},
	}
	token, started := w.state()
	opts := options.ChangeStream()
	if token != nil {
		opts.SetResumeAfter(token)
	}
	stream, err := w.Database.Watch(ctx, pipeline, opts)
	if err != nil {
		if !started {
			log.WithError(err).WithField("interval", w.PollInterval).Warn("Change streams unavailable, polling collections")
			return w.poll(ctx, collections, changed)
		}
		// The token may have fallen off the oplog; start fresh next time.
		w.setResume(nil)
		return fmt.Errorf("reopen change stream: %w", err)
	}
	defer stream.Close(context.Background())

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	log.WithFields(log.Fields{"collections": collections, "resumed": token != nil}).Info("Watching change stream")
	for stream.Next(ctx) {
		var event struct {
			NS struct {
				Coll string `bson:"coll"`
			} `bson:"ns"`
		}
		if err := stream.Decode(&event); err != nil {
			log.WithError(err).Warn("Failed to decode change event")
			continue
		}
		w.setResume(stream.ResumeToken())
		changed(event.NS.Coll)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("change stream: %w", err)
	}
	return errors.New("change stream closed")
}

func (w *ChangeWatcher) poll(ctx context.Context, collections []string, changed func(collection string)) error {
	tick := time.NewTicker(w.PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			for _, c := range collections {
				changed(c)
			}
		}
	}
}
