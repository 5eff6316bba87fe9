package handlers

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-manager/internal/calendar"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/live"
	"github.com/ukydev/fleet-manager/internal/models"
	"golang.org/x/sync/errgroup"
)

// LoadSources reads the seven calendar source collections concurrently.
func LoadSources(ctx context.Context, store db.Store) (calendar.Sources, error) {
	var src calendar.Sources
	g, gctx := errgroup.WithContext(ctx)
	load := func(collection string, out interface{}) {
		g.Go(func() error {
			if err := store.Collection(collection).FindAll(gctx, nil, out); err != nil {
				return fmt.Errorf("load %s: %w", collection, err)
			}
			return nil
		})
	}
	load(models.CollectionMissions, &src.Missions)
	load(models.CollectionInspections, &src.Inspections)
	load(models.CollectionInsurances, &src.Insurances)
	load(models.CollectionMaintenance, &src.Maintenance)
	load(models.CollectionAbsences, &src.Absences)
	load(models.CollectionVehicles, &src.Vehicles)
	load(models.CollectionDrivers, &src.Drivers)
	if err := g.Wait(); err != nil {
		return calendar.Sources{}, err
	}
	return src, nil
}

// SnapshotSource returns the latest snapshot of a collection.
type SnapshotSource interface {
	Current(collection string) (live.Snapshot, bool)
}

func decodeSnapshot[T any](hub SnapshotSource, collection string) ([]T, error) {
	snap, ok := hub.Current(collection)
	if !ok {
		return nil, nil
	}
	return live.Decode[T](snap.Docs)
}

// SourcesFromSnapshots builds calendar sources from whatever snapshots the hub
// holds. Collections that have not loaded yet are empty.
func SourcesFromSnapshots(hub SnapshotSource) (calendar.Sources, error) {
	var src calendar.Sources
	var err error
	if src.Missions, err = decodeSnapshot[models.Mission](hub, models.CollectionMissions); err != nil {
		return src, err
	}
	if src.Inspections, err = decodeSnapshot[models.Inspection](hub, models.CollectionInspections); err != nil {
		return src, err
	}
	if src.Insurances, err = decodeSnapshot[models.Insurance](hub, models.CollectionInsurances); err != nil {
		return src, err
	}
	if src.Maintenance, err = decodeSnapshot[models.Maintenance](hub, models.CollectionMaintenance); err != nil {
		return src, err
	}
	if src.Absences, err = decodeSnapshot[models.Absence](hub, models.CollectionAbsences); err != nil {
		return src, err
	}
	if src.Vehicles, err = decodeSnapshot[models.Vehicle](hub, models.CollectionVehicles); err != nil {
		return src, err
	}
	if src.Drivers, err = decodeSnapshot[models.Driver](hub, models.CollectionDrivers); err != nil {
		return src, err
	}
	return src, nil
}

