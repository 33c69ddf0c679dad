package storage

import (
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/w0rd-garden/w0rd/internal/domain"
)

// SnapshotHistory serializes a hormone history to msgpack and writes it to
// path, so the bus's in-memory history survives a restart without paying
// for a database round trip on every single hormone.
func SnapshotHistory(path string, history []*domain.Hormone) error {
	data, err := msgpack.Marshal(history)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadHistorySnapshot reads back a history previously written by
// SnapshotHistory. A missing file is not an error: it just means there is
// nothing to replay yet.
func LoadHistorySnapshot(path string) ([]*domain.Hormone, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []*domain.Hormone
	if err := msgpack.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}
