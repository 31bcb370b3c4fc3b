package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// table stores one JSON document per record under root/<name>/<id>.json.
// Callers hold the persistence lock.
type table[T any] struct {
	root string
	name string
}

func newTable[T any](root, name string) *table[T] {
	return &table[T]{root: root, name: name}
}

func (t *table[T]) dir() string {
	return path.Join(t.root, t.name)
}

func (t *table[T]) file(id string) string {
	return filepath.Clean(path.Join(t.dir(), id+".json"))
}

// read returns nil, nil when the record does not exist.
func (t *table[T]) read(id string) (*T, error) {
	body, err := os.ReadFile(t.file(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s %s: %w", t.name, id, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", t.name, id, err)
	}

	return &record, nil
}

func (t *table[T]) write(id string, record *T) error {
	err := os.MkdirAll(t.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", t.name, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", t.name, id, err)
	}

	err = os.WriteFile(t.file(id), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", t.name, id, err)
	}

	return nil
}

// remove reports whether a record was deleted.
func (t *table[T]) remove(id string) (bool, error) {
	err := os.Remove(t.file(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to delete %s %s: %w", t.name, id, err)
	}

	return true, nil
}

func (t *table[T]) all() ([]*T, error) {
	jsonFiles, err := fs.Glob(os.DirFS(t.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", t.name, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		record, err := t.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}
