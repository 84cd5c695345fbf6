package testsupport

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a named shared-cache in-memory database. Distinct
// names keep parallel tests isolated.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "bulk"
	}
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	if err != nil {
		return nil, err
	}
	// a single connection keeps the in-memory database alive between queries
	sqldb.SetMaxOpenConns(1)
	return sqldb, nil
}
