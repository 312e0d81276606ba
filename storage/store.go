package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RecordKey names the single record that holds the serialized roster
const RecordKey = "chat_history"

// Backend identifies a roster store implementation
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// RosterStore persists the whole session roster as one document.
// Writes overwrite the previous document; the last write wins.
type RosterStore interface {
	LoadRoster() ([]Session, error)
	SaveRoster(roster []Session) error
	Close() error
}

// Open creates a roster store for the given backend rooted at dataDir
func Open(backend Backend, dataDir string) (RosterStore, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLiteStore(dataDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

func decodeRoster(data []byte) ([]Session, error) {
	if len(data) == 0 {
		return []Session{}, nil
	}

	var roster []Session
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRoster, err)
	}

	for i := range roster {
		if roster[i].ID == "" {
			return nil, fmt.Errorf("%w: session at position %d has no id", ErrCorruptRoster, i)
		}
		if roster[i].Messages == nil {
			roster[i].Messages = []Message{}
		}
		// Records without created_at fall back to the time in their ID
		if roster[i].CreatedAt.IsZero() {
			if ts, ok := IDTime(roster[i].ID); ok {
				roster[i].CreatedAt = ts
			}
		}
	}

	return roster, nil
}

func encodeRoster(roster []Session) ([]byte, error) {
	if roster == nil {
		roster = []Session{}
	}
	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roster: %w", err)
	}
	return data, nil
}

// FileStore keeps the roster in a JSON file inside the data directory
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed roster store
func NewFileStore(dataDir string) (*FileStore, error) {
	// 0700 - user-only access, history holds private conversations
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{
		path: filepath.Join(dataDir, RecordKey+".json"),
	}, nil
}

// Path returns the location of the roster file
func (fs *FileStore) Path() string {
	return fs.path
}

// LoadRoster reads the roster file. A missing file is an empty roster.
func (fs *FileStore) LoadRoster() ([]Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	return decodeRoster(data)
}

// SaveRoster overwrites the roster file atomically
func (fs *FileStore) SaveRoster(roster []Session) error {
	data, err := encodeRoster(roster)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), RecordKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close history file: %w", err)
	}

	// Use 0600 permissions - history contains sensitive conversation content
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set history file permissions: %w", err)
	}

	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

func (fs *FileStore) Close() error {
	return nil
}

// MemoryStore keeps the serialized roster in process memory
type MemoryStore struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates a memory store preloaded with raw record bytes
func NewMemoryStoreWith(data []byte) *MemoryStore {
	return &MemoryStore{data: data}
}

func (ms *MemoryStore) LoadRoster() ([]Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return decodeRoster(ms.data)
}

func (ms *MemoryStore) SaveRoster(roster []Session) error {
	data, err := encodeRoster(roster)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data = data
	ms.writes++
	return nil
}

// Writes reports how many times the roster has been saved
func (ms *MemoryStore) Writes() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.writes
}

func (ms *MemoryStore) Close() error {
	return nil
}
