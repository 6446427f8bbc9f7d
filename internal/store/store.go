package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the Atomic Store: crash-safe JSON persistence for sessions,
// transcripts, cost, and (via WriteJSONAtomic/ReadJSON) the job queue and
// audit pipeline that share its data directory. Metadata mutations
// (metadata.json: transcript index + global cost) are serialized by a
// single process-wide mutex to close the TOCTOU window a naive
// read-modify-write would expose; session files are independent and do not
// contend with each other or with metadata.json.
type Store struct {
	dataDir string

	metadataMu sync.Mutex // guards metadata.json read-modify-write

	sessionLocksMu sync.Mutex
	sessionLocks   map[string]*sync.Mutex // per-session file write serialization
}

// New creates a Store rooted at dataDir, creating the directory tree if
// it does not already exist.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "./data"
	}
	for _, sub := range []string{"", "sessions", "transcripts", "audit", "audit/sessions", "exports", "jobs"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", sub, err)
		}
	}
	return &Store{
		dataDir:      dataDir,
		sessionLocks: make(map[string]*sync.Mutex),
	}, nil
}

// DataDir returns the root data directory, for components (audit, jobs)
// that own their own subtrees within it.
func (s *Store) DataDir() string { return s.dataDir }

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.dataDir, "sessions", id+".json")
}

func (s *Store) sessionCostPath(id string) string {
	return filepath.Join(s.dataDir, "sessions", id+"_cost.json")
}

func (s *Store) metadataPath() string {
	return filepath.Join(s.dataDir, "metadata.json")
}

func (s *Store) transcriptFilePath(filename string) string {
	return filepath.Join(s.dataDir, "transcripts", filename)
}

// lockFor returns the per-session mutex, creating it on first use. Session
// file writes are serialized per id so concurrent save_message calls for
// the same session never race on the tmp+rename sequence.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.sessionLocksMu.Lock()
	defer s.sessionLocksMu.Unlock()
	l, ok := s.sessionLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.sessionLocks[id] = l
	}
	return l
}

func newMessageID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }
