// Package bandpass maintains the process-wide registry of calibration
// filter transmission curves. Survey packages register their published
// curves under package-standard band names; downstream fitting tools
// look them up by name.
package bandpass

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Bandpass is a filter transmission curve sampled on a wavelength grid.
type Bandpass struct {
	Name  string
	Wave  []float64 // Angstroms
	Trans []float64
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Bandpass)
)

// Register adds a bandpass to the registry. Registering a name that
// already exists is a no-op unless force is set.
func Register(b *Bandpass, force bool) error {
	if b.Name == "" {
		return fmt.Errorf("bandpass: empty name")
	}
	if len(b.Wave) != len(b.Trans) {
		return fmt.Errorf("bandpass %s: wave/trans length mismatch (%d != %d)",
			b.Name, len(b.Wave), len(b.Trans))
	}

	mu.Lock()
	defer mu.Unlock()

	if _, ok := registry[b.Name]; ok && !force {
		return nil
	}
	registry[b.Name] = b
	return nil
}

// Get returns a registered bandpass by name.
func Get(name string) (*Bandpass, error) {
	mu.RLock()
	defer mu.RUnlock()

	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("bandpass: %q is not registered", name)
	}
	return b, nil
}

// Names returns the sorted names of all registered bandpasses.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterFile loads a two-column whitespace-delimited ascii table of
// wavelength (Angstroms) and transmission and registers it under name.
// Rows with non-numeric or NaN values are dropped.
func RegisterFile(path, name string, force bool) error {
	b, err := LoadASCII(path, name)
	if err != nil {
		return err
	}
	return Register(b, force)
}

// LoadASCII reads a two-column transmission curve from an ascii file.
func LoadASCII(path, name string) (*Bandpass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &Bandpass{Name: name}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		wave, err1 := strconv.ParseFloat(fields[0], 64)
		trans, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil || math.IsNaN(wave) || math.IsNaN(trans) {
			continue
		}

		b.Wave = append(b.Wave, wave)
		b.Trans = append(b.Trans, trans)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(b.Wave) == 0 {
		return nil, fmt.Errorf("bandpass %s: no usable rows in %s", name, path)
	}
	return b, nil
}
