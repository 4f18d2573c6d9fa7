package blobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
)

// MemoryPrefix starts every reference handed out by MemoryStore.
const MemoryPrefix = "mem://"

// MemoryStore keeps blobs in process memory. It backs local development when
// no bucket is configured and doubles as a test fake.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	prober  Prober
}

// NewMemoryStore returns an empty store. prober may be nil.
func NewMemoryStore(prober Prober) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), prober: prober}
}

// Upload reads localPath into memory and removes the file.
func (m *MemoryStore) Upload(ctx context.Context, localPath string) (Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return Asset{}, ErrEmptyPath
	}
	defer removeLocal(ctx, localPath)

	var asset Asset
	if m.prober != nil && isVideo(localPath) {
		duration, err := m.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("probe video duration", "path", localPath, "error", err)
		}
		asset.Duration = duration
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload %s: %w", localPath, err)
	}

	asset.Ref = MemoryPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(localPath))

	m.mu.Lock()
	m.objects[asset.Ref] = data
	m.mu.Unlock()

	return asset, nil
}

// Put stores data under ref directly.
func (m *MemoryStore) Put(ref string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = append([]byte(nil), data...)
}

// Delete forgets ref.
func (m *MemoryStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

// Has reports whether ref is stored.
func (m *MemoryStore) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	return ok
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ Store = (*MemoryStore)(nil)
