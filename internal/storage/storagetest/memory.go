// Package storagetest provides an in-memory storage.Storage for tests.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/templui/babybook/internal/storage"
)

type Memory struct {
	mu      sync.Mutex
	objects map[string]memoryObject

	// DeleteErr, when set, is returned by Delete for every key.
	DeleteErr error
	Deleted   []string
}

type memoryObject struct {
	data        []byte
	contentType string
}

var _ storage.Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return &storage.UploadResult{URL: m.PublicURL(key), Key: key}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *Memory) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*storage.PresignResult, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &storage.PresignResult{
		UploadURL: "https://upload.test/" + key + "?expires=" + ttl.String(),
		PublicURL: m.PublicURL(key),
	}, nil
}

func (m *Memory) Open(ctx context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	obj, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   obj.contentType,
		ContentLength: int64(len(obj.data)),
	}, nil
}

func (m *Memory) PublicURL(key string) string {
	return storage.ProxyPrefix + "/" + key
}

func (m *Memory) KeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, storage.ProxyPrefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (m *Memory) IsConfigured() bool { return true }

// Put seeds an object directly.
func (m *Memory) Put(key string, data []byte, contentType string) {
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
}

// Get returns the stored bytes of key.
func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys lists every stored key.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

var ErrInjected = errors.New("injected storage failure")
