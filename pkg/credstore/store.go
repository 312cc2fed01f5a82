// Package credstore backs the login flow with a flat credential store.
//
// The rest of the system only sees the oracle interface: whether a user
// exists and whether a username/password pair is valid. Two backends are
// provided, a CSV flat file and a SQLite database.
package credstore

import (
	"fmt"

	"relayhq/courier/pkg/config"
)

// Store is the credential oracle.
type Store interface {
	// UserExists reports whether username is registered.
	UserExists(username string) (bool, error)

	// Valid reports whether the username/password pair matches a
	// registered credential.
	Valid(username, password string) (bool, error)

	// Register adds a credential. Registering an existing username
	// fails.
	Register(username, password string) error

	// Close releases backend resources.
	Close() error
}

// ErrUserExists is returned by Register for a duplicate username.
var ErrUserExists = fmt.Errorf("user already exists")

// Open creates the configured credential store backend.
func Open(cfg config.CredStoreConfig) (Store, error) {
	switch cfg.Backend {
	case "csv":
		return OpenCSV(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown credstore backend %q", cfg.Backend)
	}
}
