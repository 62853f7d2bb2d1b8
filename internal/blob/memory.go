package blob

import (
	"context"
	"sync"
)

// Memory keeps blobs in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, nil
	}
	body := make([]byte, len(obj.Body))
	copy(body, obj.Body)
	return &Object{Body: body, ContentType: obj.ContentType}, nil
}

func (m *Memory) Put(_ context.Context, key string, body []byte, contentType string) error {
	buf := make([]byte, len(body))
	copy(buf, body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Body: buf, ContentType: contentType}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Keys returns the stored keys.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
