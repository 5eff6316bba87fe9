package db

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps collections in process. It backs offline exports and tests
// and follows the same ID, timestamp and ordering rules as MongoStore.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*MemoryCollection
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*MemoryCollection)}
}

// Collection returns the named collection, creating it on first use.
func (s *MemoryStore) Collection(name string) RecordCollection {
	return s.collection(name)
}

func (s *MemoryStore) collection(name string) *MemoryCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &MemoryCollection{name: name}
		s.collections[name] = c
	}
	return c
}

// LoadRaw returns every document of a collection in insertion order.
func (s *MemoryStore) LoadRaw(_ context.Context, collection string) ([]bson.Raw, error) {
	return s.collection(collection).raw()
}

// MemoryCollection is one in-process collection.
type MemoryCollection struct {
	name string
	mu   sync.Mutex
	docs []bson.M
}

func (c *MemoryCollection) Name() string { return c.name }

func toM(doc interface{}) (bson.M, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *MemoryCollection) Insert(_ context.Context, doc interface{}) (string, error) {
	m, err := toM(doc)
	if err != nil {
		return "", err
	}
	if _, ok := doc.(bson.M); ok {
		now := primitive.NewDateTimeFromTime(time.Now().UTC())
		m["created_at"] = now
		m["updated_at"] = now
	}
	id, _ := m["_id"].(string)
	if id == "" {
		id = NewID()
		m["_id"] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) >= 0 {
		return "", fmt.Errorf("%w: _id %s", ErrDuplicate, id)
	}
	c.docs = append(c.docs, m)
	return id, nil
}

func (c *MemoryCollection) indexOf(id string) int {
	for i, d := range c.docs {
		if d["_id"] == id {
			return i
		}
	}
	return -1
}

func matches(doc bson.M, filter bson.M) bool {
	for k, want := range filter {
		if fmt.Sprint(doc[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// FindAll supports nil filters and top-level equality filters.
func (c *MemoryCollection) FindAll(_ context.Context, filter interface{}, out interface{}) error {
	var f bson.M
	if filter != nil {
		var ok bool
		if f, ok = filter.(bson.M); !ok {
			return fmt.Errorf("memory collection: unsupported filter %T", filter)
		}
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("memory collection: out must be a pointer to a slice")
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()

	c.mu.Lock()
	defer c.mu.Unlock()
	result := reflect.MakeSlice(slice.Type(), 0, len(c.docs))
	for _, d := range c.docs {
		if !matches(d, f) {
			continue
		}
		data, err := bson.Marshal(d)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(data, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

func (c *MemoryCollection) FindByID(_ context.Context, id string, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	data, err := bson.Marshal(c.docs[i])
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}

// Update applies fields like $set, including dotted paths into sub-documents.
func (c *MemoryCollection) Update(_ context.Context, id string, fields bson.M) error {
	set, err := toM(fields)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	for k, v := range set {
		setPath(c.docs[i], strings.Split(k, "."), v)
	}
	c.docs[i]["updated_at"] = primitive.NewDateTimeFromTime(time.Now().UTC())
	return nil
}

func setPath(doc bson.M, path []string, v interface{}) {
	if len(path) == 1 {
		doc[path[0]] = v
		return
	}
	child, ok := doc[path[0]].(bson.M)
	if !ok {
		child = bson.M{}
		if d, isD := doc[path[0]].(primitive.D); isD {
			child = d.Map()
		}
		doc[path[0]] = child
	}
	setPath(child, path[1:], v)
}

func (c *MemoryCollection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return nil
}

func (c *MemoryCollection) DeleteAll(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.docs))
	c.docs = nil
	return n, nil
}

func (c *MemoryCollection) raw() ([]bson.Raw, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bson.Raw, 0, len(c.docs))
	for _, d := range c.docs {
		data, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
