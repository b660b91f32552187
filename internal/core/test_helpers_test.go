package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tagrelay/internal/store"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory store.MessageStore and store.TagStore.
type fakeStore struct {
	mu       sync.Mutex
	messages []*store.Message
	tags     map[string]*store.Tag
	links    map[int64][]int64
	nextID   int64

	failInsert  bool
	failLinkFor map[string]bool
	// conflictFor makes the first CreateTag for a name lose a race: the row
	// appears as if another writer inserted it, and ErrTagConflict is returned.
	conflictFor map[string]bool
	tagCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tags:        make(map[string]*store.Tag),
		links:       make(map[int64][]int64),
		failLinkFor: make(map[string]bool),
		conflictFor: make(map[string]bool),
	}
}

func (f *fakeStore) InsertMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failInsert {
		return nil, errStoreDown
	}
	f.nextID++
	saved := *msg
	saved.ID = f.nextID
	saved.SentAt = msg.SentAt.UTC()
	f.messages = append(f.messages, &saved)
	return &saved, nil
}

func (f *fakeStore) FindTagByName(_ context.Context, name string) (*store.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagCalls++
	tag, ok := f.tags[name]
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", name, store.ErrNotFound)
	}
	cp := *tag
	return &cp, nil
}

func (f *fakeStore) CreateTag(_ context.Context, name string) (*store.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagCalls++
	if f.conflictFor[name] {
		delete(f.conflictFor, name)
		f.insertTagLocked(name)
		return nil, fmt.Errorf("tag %q: %w", name, store.ErrTagConflict)
	}
	if _, ok := f.tags[name]; ok {
		return nil, fmt.Errorf("tag %q: %w", name, store.ErrTagConflict)
	}
	cp := *f.insertTagLocked(name)
	return &cp, nil
}

func (f *fakeStore) insertTagLocked(name string) *store.Tag {
	f.nextID++
	tag := &store.Tag{ID: f.nextID, Name: name}
	f.tags[name] = tag
	return tag
}

func (f *fakeStore) LinkMessageTag(_ context.Context, messageID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagCalls++
	for name, tag := range f.tags {
		if tag.ID == tagID && f.failLinkFor[name] {
			return errStoreDown
		}
	}
	f.links[messageID] = append(f.links[messageID], tagID)
	return nil
}

func (f *fakeStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeStore) tagCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tags)
}

func (f *fakeStore) linksOf(messageID int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.links[messageID]...)
}

type testRig struct {
	store    *fakeStore
	registry *Registry
	pipeline *Pipeline
	hub      *Hub
}

func newTestRig(opts PipelineOptions) *testRig {
	logger := zerolog.Nop()
	st := newFakeStore()
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, &logger)
	resolver := NewTagResolver(st, opts.PersistTimeout, &logger)
	pipeline := NewPipeline(st, resolver, dispatcher, opts, &logger)
	return &testRig{
		store:    st,
		registry: registry,
		pipeline: pipeline,
		hub:      NewHub(registry, pipeline, &logger),
	}
}

func (r *testRig) connect(id, room string) *Session {
	s := NewSession(id, room, 8)
	r.hub.Connect(s)
	return s
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
