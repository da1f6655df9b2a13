// Package cas implements storage of build records.
package cas

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildRecordStore = (*Store)(nil)

// Store implements ports.BuildRecordStore using a file-per-record strategy.
type Store struct{}

// NewStore creates a new BuildRecordStore.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the record for an identifier under root.
func (s *Store) Get(root, identifier string) (*domain.BuildRecord, error) {
	filename := s.getFilename(root, identifier)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(domain.WrapError(domain.ErrStoreReadFailed, err), "identifier", identifier)
	}

	var record domain.BuildRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(domain.WrapError(domain.ErrStoreUnmarshalFailed, err), "identifier", identifier)
	}

	return &record, nil
}

// Put stores the record under root, replacing any previous record for its identifier.
func (s *Store) Put(root string, record domain.BuildRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrStoreMarshalFailed, err)
	}

	filename := s.getFilename(root, record.Identifier)
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return domain.WrapError(domain.ErrStoreCreateFailed, err)
	}

	// Write through a temporary file so concurrent readers never see a partial record.
	tmp, err := os.CreateTemp(dir, ".record-*")
	if err != nil {
		return domain.WrapError(domain.ErrStoreWriteFailed, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Best effort cleanup; fails harmlessly after rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return domain.WrapError(domain.ErrStoreWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(domain.ErrStoreWriteFailed, err)
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return domain.WrapError(domain.ErrStoreWriteFailed, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return domain.WrapError(domain.ErrStoreWriteFailed, err)
	}

	return nil
}

// List returns every record stored under root ordered by identifier.
func (s *Store) List(root string) ([]domain.BuildRecord, error) {
	dir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrStoreReadFailed, err)
	}

	var records []domain.BuildRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		//nolint:gosec // Path is constructed from trusted directory and listed filename
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, zerr.With(domain.WrapError(domain.ErrStoreReadFailed, err), "file", e.Name())
		}
		var record domain.BuildRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, zerr.With(domain.WrapError(domain.ErrStoreUnmarshalFailed, err), "file", e.Name())
		}
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b domain.BuildRecord) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return records, nil
}

func (s *Store) getFilename(root, identifier string) string {
	hash := blake3.Sum256([]byte(identifier))
	storeDir := filepath.Join(root, domain.DefaultStorePath())
	return filepath.Join(storeDir, hex.EncodeToString(hash[:16])+".json")
}
