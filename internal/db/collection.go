package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNotFound is returned when no document matches the requested ID.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// RecordCollection defines the document operations shared by every named collection.
type RecordCollection interface {
	Name() string
	Insert(ctx context.Context, doc interface{}) (string, error)
	FindAll(ctx context.Context, filter interface{}, out interface{}) error
	FindByID(ctx context.Context, id string, out interface{}) error
	Update(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Store gives access to named record collections.
type Store interface {
	Collection(name string) RecordCollection
}
