package vizier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadMe = `J/ApJ/773/53   CSP optical spectroscopy of SNe Ia   (Folatelli+, 2013)
================================================================================
Carnegie Supernova Project: spectroscopy of Type Ia supernovae.
================================================================================

File Summary:
--------------------------------------------------------------------------------
 FileName      Lrecl  Records   Explanations
--------------------------------------------------------------------------------
ReadMe            80        .   This file
table1.dat        57       93   General properties of the supernova sample
table2.dat        61      604   Log of spectroscopic observations performed
                                by the Carnegie Supernova Project
--------------------------------------------------------------------------------

Byte-by-byte Description of file: table1.dat
--------------------------------------------------------------------------------
   Bytes Format Units   Label     Explanations
--------------------------------------------------------------------------------
   1-  8  A8    ---     SN        Supernova name
  10- 15  F6.4  ---     zhel      Heliocentric redshift
  17- 22  F6.1  d       JDmax     Julian date of B-band maximum
      24  A1    ---     Flag      [ab] Quality flag
--------------------------------------------------------------------------------

Byte-by-byte Description of file: table2.dat
--------------------------------------------------------------------------------
   Bytes Format Units   Label     Explanations
--------------------------------------------------------------------------------
   1-  8  A8    ---     SN        Supernova name
  10- 12  A3    ---     Tel       Telescope code
--------------------------------------------------------------------------------
`

const sampleTable1 = `SN2004ef 0.0310 2453264.4 a
SN2005kc 0.0151 2453698.0 b
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ReadMe"), []byte(sampleReadMe), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table1.dat"), []byte(sampleTable1), 0644))
	return dir
}

func TestTableDescriptions(t *testing.T) {
	dir := writeSample(t)

	descs, err := TableDescriptions(filepath.Join(dir, "ReadMe"))
	require.NoError(t, err)

	assert.Equal(t, "General properties of the supernova sample", descs["1"])

	// Multiline descriptions are joined
	assert.Equal(t,
		"Log of spectroscopic observations performed by the Carnegie Supernova Project",
		descs["2"])

	// The ReadMe entry itself is not a table
	assert.NotContains(t, descs, "readme")
}

func TestSchemaFor(t *testing.T) {
	dir := writeSample(t)

	schema, err := SchemaFor(filepath.Join(dir, "ReadMe"), "table1.dat")
	require.NoError(t, err)
	require.Len(t, schema, 4)

	assert.Equal(t, Field{Name: "SN", Start: 1, End: 8, Format: "A8", Unit: "---"}, schema[0])
	assert.Equal(t, "zhel", schema[1].Name)

	// Single-byte columns parse without a range
	assert.Equal(t, Field{Name: "Flag", Start: 24, End: 24, Format: "A1", Unit: "---"}, schema[3])
}

func TestSchemaForUnknownFile(t *testing.T) {
	dir := writeSample(t)
	_, err := SchemaFor(filepath.Join(dir, "ReadMe"), "table9.dat")
	assert.Error(t, err)
}

func TestReadTable(t *testing.T) {
	dir := writeSample(t)

	table, err := ReadTable(dir, "table1.dat")
	require.NoError(t, err)

	assert.Equal(t, []string{"SN", "zhel", "JDmax", "Flag"}, table.Columns)
	assert.Equal(t, "General properties of the supernova sample", table.Description)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"SN2004ef", "0.0310", "2453264.4", "a"}, table.Rows[0])
	assert.Equal(t, "b", table.Rows[1][3])
}

func TestSchemaParseShortLine(t *testing.T) {
	schema := Schema{
		{Name: "a", Start: 1, End: 4},
		{Name: "b", Start: 6, End: 9},
	}
	values := schema.Parse("abcd")
	assert.Equal(t, []string{"abcd", ""}, values)
}
