package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/models"
)

var ErrNotFound = errors.New("result set not found")

// Store persists the scored result set of a search. Saving a new search term
// replaces whatever batch was stored before.
type Store interface {
	Save(ctx context.Context, term string, records []models.ScoredRecord) error
	Load(ctx context.Context, term string) ([]models.ScoredRecord, error)
}

// ArtifactName derives the storage key of a search term: "taza de cafe"
// becomes "taza_de_cafe".
func ArtifactName(term string) string {
	return strings.Join(strings.Fields(term), "_")
}

type resultFile struct {
	Term    string                `json:"term"`
	SavedAt time.Time             `json:"saved_at"`
	Records []models.ScoredRecord `json:"records"`
}

// resultSuffix marks the files a FileStore owns. Anything else in dir is left
// alone.
const resultSuffix = ".results.json"

// FileStore keeps one JSON file per search term in dir.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create result dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) Path(term string) string {
	return filepath.Join(fs.dir, ArtifactName(term)+resultSuffix)
}

// Save writes the batch and removes result files of other terms.
func (fs *FileStore) Save(ctx context.Context, term string, records []models.ScoredRecord) error {
	if ArtifactName(term) == "" {
		return fmt.Errorf("search term is required")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(resultFile{
		Term:    term,
		SavedAt: time.Now(),
		Records: records,
	}, "", "  ")
	if err != nil {
		return err
	}

	target := fs.Path(term)

	// Write to temp file first for atomicity
	tmpFile := target + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, target); err != nil {
		return err
	}

	return fs.removeOthers(target)
}

func (fs *FileStore) Load(ctx context.Context, term string) ([]models.ScoredRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.Path(term))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, term)
	}
	if err != nil {
		return nil, err
	}

	var f resultFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode result file: %w", err)
	}

	return f.Records, nil
}

func (fs *FileStore) removeOthers(keep string) error {
	matches, err := filepath.Glob(filepath.Join(fs.dir, "*"+resultSuffix))
	if err != nil {
		return err
	}

	for _, m := range matches {
		if m == keep {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove previous result file: %w", err)
		}
	}

	return nil
}
