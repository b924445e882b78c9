package state

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"glowing-telegram/internal/domain"
)

const stateFileName = "state.json"

// FileStore persists the state document as a single JSON file. Load never
// fails: a missing, unreadable, or schema-mismatched file degrades to a
// fresh default document, because a duplicate alert after state loss is
// recoverable while a crashed run is not. Save is atomic: the new document
// is written to a temp file, fsynced, and renamed over the old one, so a
// crash mid-save leaves the previous document intact.
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, stateFileName)}
}

func (s *FileStore) Load(ctx context.Context) *domain.StateDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("state: read %s failed, starting fresh: %v", s.path, err)
		}
		return domain.NewStateDocument()
	}

	var doc domain.StateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("state: %s is unreadable, starting fresh: %v", s.path, err)
		return domain.NewStateDocument()
	}
	if doc.SchemaVersion != domain.SchemaVersion {
		log.Printf("state: %s has schema version %d, want %d, starting fresh", s.path, doc.SchemaVersion, domain.SchemaVersion)
		return domain.NewStateDocument()
	}
	if doc.Coins == nil {
		doc.Coins = make(map[string]*domain.CoinState)
	}
	return &doc
}

func (s *FileStore) Save(ctx context.Context, doc *domain.StateDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), stateFileName+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
