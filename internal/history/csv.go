package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportCSV streams the full event log, oldest first.
func (s *Store) ExportCSV(w io.Writer) error {
	rows, err := s.db.Query(`SELECT id, kind, at FROM events ORDER BY at ASC`)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "kind", "at_unix", "at_rfc3339"}); err != nil {
		return err
	}
	for rows.Next() {
		var id, kind string
		var at int64
		if err := rows.Scan(&id, &kind, &at); err != nil {
			return err
		}
		rec := []string{id, kind, strconv.FormatInt(at, 10), time.Unix(at, 0).UTC().Format(time.RFC3339)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
