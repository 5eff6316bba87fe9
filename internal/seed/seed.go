// Package seed wipes and regenerates the demo data set.
package seed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/models"
	"golang.org/x/sync/errgroup"
)

// Collections are the collections wiped and regenerated by Reset.
var Collections = []string{
	models.CollectionVehicles,
	models.CollectionDrivers,
	models.CollectionClients,
	models.CollectionMissions,
	models.CollectionInspections,
	models.CollectionInsurances,
	models.CollectionMaintenance,
	models.CollectionAbsences,
	models.CollectionStock,
	models.CollectionExpenses,
	models.CollectionRevenues,
}

// Result counts what Reset did per collection.
type Result struct {
	Deleted  map[string]int64 `json:"deleted"`
	Inserted map[string]int   `json:"inserted"`
	Failed   map[string]int   `json:"failed"`
}

// Seeder resets the demo collections of a store.
type Seeder struct {
	store       db.Store
	concurrency int
	now         func() time.Time
	loc         *time.Location
	genMu       sync.Mutex
	rnd         *rand.Rand
}

// New creates a seeder writing at most concurrency documents at a time.
func New(store db.Store, concurrency int, loc *time.Location) *Seeder {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Seeder{
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
		loc:         loc,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reset deletes every document of the demo collections, then inserts a freshly
// generated dataset. Writes run concurrently; each failed write is logged and
// skipped and nothing is rolled back. Only context cancellation aborts.
func (s *Seeder) Reset(ctx context.Context) (Result, error) {
	res := Result{
		Deleted:  make(map[string]int64),
		Inserted: make(map[string]int),
		Failed:   make(map[string]int),
	}
	var mu sync.Mutex

	del, dctx := errgroup.WithContext(ctx)
	for _, name := range Collections {
		del.Go(func() error {
			n, err := s.store.Collection(name).DeleteAll(dctx)
			if err != nil {
				if dctx.Err() != nil {
					return dctx.Err()
				}
				log.WithError(err).WithField("collection", name).Warn("Failed to clear collection, continuing")
				return nil
			}
			mu.Lock()
			res.Deleted[name] = n
			mu.Unlock()
			return nil
		})
	}
	if err := del.Wait(); err != nil {
		return res, err
	}

	s.genMu.Lock()
	docs := Generate(s.rnd, s.now(), s.loc).Documents()
	s.genMu.Unlock()

	ins, ictx := errgroup.WithContext(ctx)
	ins.SetLimit(s.concurrency)
	for _, name := range Collections {
		for _, doc := range docs[name] {
			ins.Go(func() error {
				if ictx.Err() != nil {
					return ictx.Err()
				}
				_, err := s.store.Collection(name).Insert(ictx, doc)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					res.Failed[name]++
					log.WithError(err).WithField("collection", name).Warn("Failed to insert demo record, skipping")
					return nil
				}
				res.Inserted[name]++
				return nil
			})
		}
	}
	if err := ins.Wait(); err != nil {
		return res, err
	}

	log.WithFields(log.Fields{
		"inserted": res.Inserted,
		"failed":   res.Failed,
	}).Info("Demo data regenerated")
	return res, nil
}
