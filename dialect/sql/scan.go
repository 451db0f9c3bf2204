package sql

import "fmt"

// ScanMaps reads every remaining row of rows into a column-name keyed map,
// in result order. Driver []byte values are copied into strings, since text
// columns arrive as []byte from the MySQL driver and the buffer is reused
// between rows. ScanMaps does not close rows.
func ScanMaps(rows ColumnScanner) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: scan columns: %w", err)
	}
	var out []map[string]any
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
			values[i] = nil
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	return out, nil
}

// ScanInt64 reads the first column of the first row as an int64. It is used
// for COUNT(*) results, which drivers report as int64 or as decimal text.
func ScanInt64(rows ColumnScanner) (int64, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		return 0, fmt.Errorf("dialect/sql: scan: no rows in count result")
	}
	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, fmt.Errorf("dialect/sql: scan count: %w", err)
	}
	return n, rows.Err()
}
