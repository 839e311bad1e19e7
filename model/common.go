package model

import (
	"database/sql"
	"encoding/json"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

const (
	MySQLFormat = "2006-01-02 15:04:05"
)

// Store reads and writes the benchmarking records in MySQL. The planner,
// aggregator and report packages only see it through narrow interfaces.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func isDuplicateEntry(err error) bool {
	if driverErr, ok := err.(*mysql.MySQLError); ok {
		return driverErr.Number == 1062
	}
	return false
}

func decodeJSONColumn(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
