// Package media stores binary assets such as generated videos.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"connecthub/internal/model"
)

// Folders and cache policy for stored objects.
const (
	VideoFolder  = "videos"
	VideoExt     = ".mp4"
	CacheControl = "public, max-age=31536000, immutable"
)

// Object describes a stored asset.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Store persists media bytes under a key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*Object, error)
	Get(ctx context.Context, key string) (*Object, []byte, error)
}

// NewKey returns a fresh object key inside folder.
func NewKey(folder, ext string) string {
	return path.Join(folder, uuid.NewString()+ext)
}

// ValidKey rejects keys that could escape the media namespace.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	return path.Clean(key) == key && !strings.HasPrefix(key, "..")
}

type memoryObject struct {
	contentType string
	data        []byte
}

// ErrObjectTooLarge is returned when one object exceeds the whole memory budget.
var ErrObjectTooLarge = errors.New("media object exceeds store capacity")

// MemoryStore keeps objects in process memory and addresses them under baseURL.
// Once maxBytes is reached the oldest objects are evicted. maxBytes <= 0 disables the cap.
type MemoryStore struct {
	baseURL  string
	maxBytes int64

	mu      sync.RWMutex
	objects map[string]memoryObject
	order   []string
	size    int64
}

func NewMemoryStore(baseURL string, maxBytes int64) *MemoryStore {
	return &MemoryStore{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		objects:  make(map[string]memoryObject),
	}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) (*Object, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid media key %q", key)
	}
	if m.maxBytes > 0 && int64(len(data)) > m.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, len(data))
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.remove(key)
	for m.maxBytes > 0 && m.size+int64(len(buf)) > m.maxBytes && len(m.order) > 0 {
		oldest := m.order[0]
		m.remove(oldest)
		log.Info().Str("component", "MediaStore").Str("key", oldest).Msg("Evicted media object")
	}
	m.objects[key] = memoryObject{contentType: contentType, data: buf}
	m.order = append(m.order, key)
	m.size += int64(len(buf))
	m.mu.Unlock()

	return m.object(key, contentType, len(buf)), nil
}

// Size returns the bytes currently held.
func (m *MemoryStore) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// remove drops key; callers hold mu.
func (m *MemoryStore) remove(key string) {
	obj, ok := m.objects[key]
	if !ok {
		return
	}
	delete(m.objects, key)
	m.size -= int64(len(obj.data))
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Object, []byte, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, model.ErrMediaNotFound
	}
	return m.object(key, obj.contentType, len(obj.data)), obj.data, nil
}

func (m *MemoryStore) object(key, contentType string, size int) *Object {
	return &Object{
		Key:         key,
		URL:         m.baseURL + "/" + key,
		ContentType: contentType,
		Size:        size,
	}
}
