package vizier

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Field describes one fixed-width column of a CDS table.
type Field struct {
	Name   string
	Start  int // 1-based, inclusive
	End    int // 1-based, inclusive
	Format string
	Unit   string
}

// Schema is the ordered column layout of a CDS table.
type Schema []Field

// Table is a CDS table read into memory. Values are kept as trimmed
// strings; the survey packages convert the columns they consume.
type Table struct {
	Name        string
	Description string
	Columns     []string
	Rows        [][]string
}

var (
	rangeRe  = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s+(\S+)\s+(\S+)\s+(\S+)`)
	singleRe = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+(\S+)\s+(\S+)`)
)

// SchemaFor extracts the byte-by-byte column layout for a table file
// from a CDS ReadMe.
func SchemaFor(readmePath, fileName string) (Schema, error) {
	f, err := os.Open(readmePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	// Find the byte-by-byte block naming this file. A single block may
	// describe several files ("table8.dat table9.dat").
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Byte-by-byte Description of file:") {
			continue
		}
		rest := strings.TrimPrefix(line, "Byte-by-byte Description of file:")
		for _, name := range strings.FieldsFunc(rest, func(r rune) bool { return r == ' ' || r == ',' }) {
			if name == fileName {
				found = true
			}
		}
		if found {
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("vizier: no byte-by-byte description of %s in %s", fileName, readmePath)
	}

	for rules := 0; rules < 2 && scanner.Scan(); {
		if isRule(scanner.Text()) {
			rules++
		}
	}

	var schema Schema
	for scanner.Scan() {
		line := scanner.Text()
		if isRule(line) {
			break
		}

		if m := rangeRe.FindStringSubmatch(line); m != nil {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			schema = append(schema, Field{
				Name:   m[5],
				Start:  start,
				End:    end,
				Format: m[3],
				Unit:   m[4],
			})
		} else if m := singleRe.FindStringSubmatch(line); m != nil {
			pos, _ := strconv.Atoi(m[1])
			schema = append(schema, Field{
				Name:   m[4],
				Start:  pos,
				End:    pos,
				Format: m[2],
				Unit:   m[3],
			})
		}
		// Anything else is an explanation continuation line
	}

	if len(schema) == 0 {
		return nil, fmt.Errorf("vizier: empty byte-by-byte description for %s", fileName)
	}
	return schema, scanner.Err()
}

// Parse slices one fixed-width data line into trimmed column values.
func (s Schema) Parse(line string) []string {
	values := make([]string, len(s))
	for i, f := range s {
		start := f.Start - 1
		end := f.End
		if start > len(line) {
			values[i] = ""
			continue
		}
		if end > len(line) {
			end = len(line)
		}
		values[i] = strings.TrimSpace(line[start:end])
	}
	return values
}

// Columns returns the ordered column names.
func (s Schema) Columns() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// ReadTable reads a CDS table file using the byte-by-byte layout and
// description from the ReadMe in the same directory.
func ReadTable(tableDir, fileName string) (*Table, error) {
	readmePath := filepath.Join(tableDir, "ReadMe")
	schema, err := SchemaFor(readmePath, fileName)
	if err != nil {
		return nil, err
	}

	descriptions, err := TableDescriptions(readmePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(tableDir, fileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := &Table{
		Name:        fileName,
		Description: descriptions[tableID(fileName)],
		Columns:     schema.Columns(),
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		table.Rows = append(table.Rows, schema.Parse(line))
	}
	return table, scanner.Err()
}
