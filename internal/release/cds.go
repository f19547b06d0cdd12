package release

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"sndata/internal/vizier"
)

// CDSTableIDs lists the IDs of the CDS paper tables present in a table
// directory ("table3.dat" -> "3").
func CDSTableIDs(tableDir string) ([]string, error) {
	if err := RequireDirs(tableDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(tableDir, "table*.dat"))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		ids = append(ids, strings.TrimPrefix(name, "table"))
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadCDSTable loads (and caches) a CDS paper table by ID using the
// ReadMe in the same directory.
func LoadCDSTable(cache *TableCache, tableDir, id string) (*Table, error) {
	ids, err := CDSTableIDs(tableDir)
	if err != nil {
		return nil, err
	}

	known := false
	for _, have := range ids {
		if have == id {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("table %q: %w", id, ErrInvalidTableID)
	}

	return cache.Load(id, func() (*Table, error) {
		t, err := vizier.ReadTable(tableDir, "table"+id+".dat")
		if err != nil {
			return nil, err
		}
		return &Table{
			ID:          id,
			Description: t.Description,
			Columns:     t.Columns,
			Rows:        t.Rows,
		}, nil
	})
}
