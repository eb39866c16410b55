// Package identity persists the address of the paired laser meter between
// runs. The store holds a single record; a missing or unreadable record is
// treated as "no device paired yet".
package identity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the default identity file name inside the config directory.
const FileName = "device.json"

// record is the on-disk form. Unknown fields are ignored on load.
type record struct {
	MACAddress string `json:"mac_address"`
}

// Store reads and writes the identity record at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted device address. It never fails: any read or
// parse problem, or an empty mac_address, is reported as absent.
func (s *Store) Load() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("[IDENTITY] read failed, treating as absent", "path", s.path, "error", err)
		}
		return "", false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Debug("[IDENTITY] parse failed, treating as absent", "path", s.path, "error", err)
		return "", false
	}

	addr := strings.TrimSpace(rec.MACAddress)
	if addr == "" {
		slog.Debug("[IDENTITY] mac_address missing, treating as absent", "path", s.path)
		return "", false
	}
	return addr, true
}

// Save replaces the persisted record with address.
func (s *Store) Save(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("identity: address must not be empty")
	}

	data, err := json.Marshal(record{MACAddress: address})
	if err != nil {
		return fmt.Errorf("identity: encode record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("identity: creating directory: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("identity: writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("identity: replacing %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the persisted record. Clearing an absent record is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("identity: removing %s: %w", s.path, err)
	}
	return nil
}
