package release

import "sync"

// Table is a published paper table in a release-agnostic shape. Most
// tables are string-valued grids read from fixed-column ascii; numeric
// FITS tables (e.g. covariance matrices) populate Matrix instead.
type Table struct {
	ID          string
	Description string
	Columns     []string
	Rows        [][]string
	Matrix      [][]float64
}

// Clone returns a deep copy, so cached tables cannot be mutated by
// callers.
func (t *Table) Clone() *Table {
	out := &Table{
		ID:          t.ID,
		Description: t.Description,
		Columns:     append([]string(nil), t.Columns...),
	}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = append([]string(nil), row...)
		}
	}
	if t.Matrix != nil {
		out.Matrix = make([][]float64, len(t.Matrix))
		for i, row := range t.Matrix {
			out.Matrix[i] = append([]float64(nil), row...)
		}
	}
	return out
}

// Column returns the values of a named column, or nil when absent.
func (t *Table) Column(name string) []string {
	idx := -1
	for i, col := range t.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values
}

// TableCache memoizes loaded paper tables by ID. Lookups return clones,
// so the cached copy stays pristine. The zero value is ready to use.
type TableCache struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// Load returns the cached table for an ID, calling load on a miss.
func (c *TableCache) Load(id string, load func() (*Table, error)) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[id]; ok {
		return t.Clone(), nil
	}

	t, err := load()
	if err != nil {
		return nil, err
	}

	if c.tables == nil {
		c.tables = make(map[string]*Table)
	}
	c.tables[id] = t
	return t.Clone(), nil
}
