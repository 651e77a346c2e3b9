package query

import (
	"database/sql"
	"time"
)

// CollectRows drains a result set produced by Build into generic records,
// peeling the full_count window column off into the total match count. Byte
// slices are surfaced as strings so the records serialize cleanly to JSON.
func CollectRows(rows *sql.Rows) ([]map[string]interface{}, int, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}
	out := []map[string]interface{}{}
	var total int
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return out, total, err
		}
		rec := make(map[string]interface{}, len(cols)-1)
		for i, name := range cols {
			if name == "full_count" {
				if n, ok := vals[i].(int64); ok {
					total = int(n)
				}
				continue
			}
			switch v := vals[i].(type) {
			case []byte:
				rec[name] = string(v)
			case time.Time:
				rec[name] = v.UTC()
			default:
				rec[name] = v
			}
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
