package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/cms_admin/internal/cache"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/search"
)

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type memIndex struct {
	mu   sync.Mutex
	docs map[string]search.Document
}

func newMemIndex() *memIndex { return &memIndex{docs: map[string]search.Document{}} }

func (i *memIndex) IndexModel(_ context.Context, m *models.Model) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs[m.ID.String()] = search.DocumentFromModel(m)
	return nil
}

func (i *memIndex) DeleteModel(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.docs, id)
	return nil
}

func (i *memIndex) SearchModels(_ context.Context, q string, _, _ int) (int64, []search.Document, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []search.Document
	for _, d := range i.docs {
		if strings.Contains(strings.ToLower(d.ModelName), strings.ToLower(q)) {
			out = append(out, d)
		}
	}
	return int64(len(out)), out, nil
}

func (i *memIndex) get(id string) (search.Document, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.docs[id]
	return d, ok
}
