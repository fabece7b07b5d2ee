// Package store implements sqlite persistence for the catalog entities.
package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"
)

// marshalList encodes a string list for storage in a TEXT column. A nil list
// stores as an empty JSON array so scans never see NULL.
func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
