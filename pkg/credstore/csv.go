package credstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// CSVStore reads credentials from a flat CSV file of username,password
// rows. Lookups re-read the file so out-of-band edits are picked up
// without a restart; the file is small by construction.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// OpenCSV creates a CSV-backed store. The file does not have to exist
// yet; a missing file means no registered users.
func OpenCSV(path string) (*CSVStore, error) {
	if path == "" {
		return nil, fmt.Errorf("csv credstore path must not be empty")
	}
	return &CSVStore{path: path}, nil
}

// UserExists reports whether username appears in the file.
func (s *CSVStore) UserExists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(row) >= 1 && row[0] == username {
			return true, nil
		}
	}
	return false, nil
}

// Valid reports whether the username/password pair matches a row.
func (s *CSVStore) Valid(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(row) >= 2 && row[0] == username && row[1] == password {
			return true, nil
		}
	}
	return false, nil
}

// Register appends a username,password row.
func (s *CSVStore) Register(username, password string) error {
	exists, err := s.UserExists(username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("register %q: %w", username, ErrUserExists)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open credential file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{username, password}); err != nil {
		return fmt.Errorf("failed to append credential: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Close is a no-op for the CSV backend.
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) readAll() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open credential file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	return rows, nil
}
