package configutil

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Database points at either a local sqlite file or a remote libsql
// instance. An empty struct opens an in-memory database.
type Database struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// Open returns a database handle with `schema` already applied.
func (c Database) Open(schema string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch {
	case c.Url != "":
		dsn := c.Url
		if c.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", c.Url, c.AuthToken)
		}
		db, err = sql.Open("libsql", dsn)
	case c.File != "":
		db, err = sql.Open("sqlite", c.File)
	default:
		db, err = sql.Open("sqlite", ":memory:")
		if err == nil {
			// every pooled connection to :memory: gets its own empty
			// database, so keep the pool at one
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
