package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/google/uuid"
)

// RootID is the ID of the root folder of every Adapter.
const RootID = "root"

const maxNameLength = 255

// Node is one folder or file in a fixture tree.
type Node struct {
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Folders      []Node    `json:"folders,omitempty"`
	Files        []Node    `json:"files,omitempty"`
}

type item struct {
	meta     adapter.FileMetadata
	parentID string
}

// Adapter implements adapter.Provider over an in-memory folder tree.
// It backs DEV_MODE and the tests.
type Adapter struct {
	mu       sync.RWMutex
	items    map[string]*item
	children map[string][]string
	calls    int
	failWith error
}

// NewAdapter returns an adapter holding only the root folder.
func NewAdapter() *Adapter {
	return &Adapter{
		items:    make(map[string]*item),
		children: map[string][]string{RootID: nil},
	}
}

// FromTree builds an adapter whose root folder contains root's children.
func FromTree(root Node) (*Adapter, error) {
	m := NewAdapter()
	if err := m.addChildren(RootID, root); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFixture reads a JSON tree from path.
func LoadFixture(path string) (*Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return FromTree(root)
}

func (m *Adapter) addChildren(parentID string, n Node) error {
	for _, f := range n.Folders {
		id, err := m.AddFolder(parentID, f.Name)
		if err != nil {
			return err
		}
		if !f.ModifiedTime.IsZero() {
			m.items[id].meta.ModifiedTime = f.ModifiedTime
		}
		if err := m.addChildren(id, f); err != nil {
			return err
		}
	}
	for _, f := range n.Files {
		mime := f.MIMEType
		if mime == "" {
			mime = adapter.DocumentMimeType
		}
		id, err := m.AddFile(parentID, f.Name, mime, f.Size)
		if err != nil {
			return err
		}
		if !f.ModifiedTime.IsZero() {
			m.items[id].meta.ModifiedTime = f.ModifiedTime
		}
	}
	return nil
}

// AddFolder creates a folder under parentID and returns its ID.
func (m *Adapter) AddFolder(parentID, name string) (string, error) {
	return m.add(parentID, name, adapter.FolderMimeType, 0)
}

// AddFile creates a file under parentID and returns its ID.
func (m *Adapter) AddFile(parentID, name, mimeType string, size int64) (string, error) {
	return m.add(parentID, name, mimeType, size)
}

func (m *Adapter) add(parentID, name, mimeType string, size int64) (string, error) {
	if len(name) > maxNameLength {
		return "", fmt.Errorf("name too long (max %d characters)", maxNameLength)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.children[parentID]; !ok {
		return "", fmt.Errorf("parent folder %q: %w", parentID, adapter.ErrNotFound)
	}

	id := uuid.New().String()
	meta := adapter.FileMetadata{
		ID:           id,
		Name:         name,
		MIMEType:     mimeType,
		ModifiedTime: time.Now().UTC().Truncate(time.Second),
	}
	if mimeType == adapter.FolderMimeType {
		m.children[id] = nil
	} else {
		meta.Size = size
		meta.HasSize = true
		meta.WebViewLink = "https://drive.google.com/file/d/" + id + "/view"
		meta.WebContentLink = "https://drive.google.com/uc?id=" + id + "&export=download"
	}
	m.items[id] = &item{meta: meta, parentID: parentID}
	m.children[parentID] = append(m.children[parentID], id)
	return id, nil
}

// Rename changes the name of an existing item.
func (m *Adapter) Rename(id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return adapter.ErrNotFound
	}
	it.meta.Name = name
	it.meta.ModifiedTime = time.Now().UTC().Truncate(time.Second)
	return nil
}

// FailWith makes every subsequent list call return err. Pass nil to recover.
func (m *Adapter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Calls returns the number of list calls served so far.
func (m *Adapter) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// ListFolders lists child folders of parentID ordered by name.
func (m *Adapter) ListFolders(ctx context.Context, parentID string) ([]adapter.FileMetadata, error) {
	return m.list(ctx, parentID, func(meta adapter.FileMetadata) bool {
		return meta.MIMEType == adapter.FolderMimeType
	})
}

// ListFiles lists child documents of parentID ordered by name.
func (m *Adapter) ListFiles(ctx context.Context, parentID string) ([]adapter.FileMetadata, error) {
	return m.list(ctx, parentID, func(meta adapter.FileMetadata) bool {
		return meta.MIMEType == adapter.DocumentMimeType
	})
}

func (m *Adapter) list(ctx context.Context, parentID string, keep func(adapter.FileMetadata) bool) ([]adapter.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls++
	failWith := m.failWith
	m.mu.Unlock()
	if failWith != nil {
		return nil, failWith
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.children[parentID]
	if !ok {
		return nil, fmt.Errorf("folder %q: %w", parentID, adapter.ErrNotFound)
	}

	files := []adapter.FileMetadata{}
	for _, id := range ids {
		meta := m.items[id].meta
		if keep(meta) {
			files = append(files, meta)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

var _ adapter.Provider = (*Adapter)(nil)
