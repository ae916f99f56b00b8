package storage

import "fmt"

// NewStore returns a store for kind: "file" (the default) keeps .nnet files
// under path, "sqlite" opens the database at path, "memory" keeps nothing.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
