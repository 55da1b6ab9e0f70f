package erp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryConnector keeps posted documents in a map keyed "endpoint/id".
type MemoryConnector struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryConnector builds an empty connector.
func NewMemoryConnector() *MemoryConnector {
	return &MemoryConnector{docs: make(map[string][]byte)}
}

func documentKey(endpoint, id string) string {
	return endpoint + "/" + id
}

// Get returns the document stored under endpoint/id.
func (m *MemoryConnector) Get(_ context.Context, endpoint, id string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[documentKey(endpoint, id)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

// GetAll returns every document under endpoint ordered by key.
func (m *MemoryConnector) GetAll(_ context.Context, endpoint string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := endpoint + "/"
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, append([]byte(nil), m.docs[k]...))
	}
	return out, nil
}

// Post stores document under a fresh id and returns that id.
func (m *MemoryConnector) Post(_ context.Context, endpoint string, document []byte) (string, error) {
	if endpoint == "" {
		return "", errors.New("erp endpoint is required")
	}
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[documentKey(endpoint, id)] = append([]byte(nil), document...)
	return id, nil
}
