// Package vizier reads VizieR/CDS machine-readable tables: the ReadMe
// file that describes each table (file summary plus byte-by-byte column
// layout) and the fixed-column data files themselves.
package vizier

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TableDescriptions extracts the per-table descriptions from the
// "File Summary" block of a CDS ReadMe. The returned map is keyed by the
// table identifier, i.e. the file name with the "table" prefix and
// extension stripped ("table3.dat" -> "3", "tableb2.dat" -> "b2").
func TableDescriptions(readmePath string) (map[string]string, error) {
	f, err := os.Open(readmePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	// Skip ahead to the file summary block
	found := false
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "File Summary:" {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("vizier: no file summary in %s", readmePath)
	}

	// Skip the table header: dashed rule, column names, dashed rule
	for rules := 0; rules < 2 && scanner.Scan(); {
		if isRule(scanner.Text()) {
			rules++
		}
	}

	descriptions := make(map[string]string)
	current := ""
	for scanner.Scan() {
		line := scanner.Text()
		if isRule(line) {
			break
		}

		// Continuation lines extend the previous description
		if strings.HasPrefix(line, " ") && current != "" {
			descriptions[current] += " " + strings.TrimSpace(line)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := fields[0]
		if !strings.HasPrefix(strings.ToLower(name), "table") {
			current = ""
			continue
		}

		current = tableID(name)
		descriptions[current] = strings.Join(fields[3:], " ")
	}

	return descriptions, scanner.Err()
}

// tableID strips the "table" prefix and any extension from a CDS table
// file name.
func tableID(fileName string) string {
	id := strings.TrimPrefix(strings.ToLower(fileName), "table")
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	return id
}

func isRule(line string) bool {
	return strings.HasPrefix(line, "---")
}
