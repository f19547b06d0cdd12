package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJDSnoopy(t *testing.T) {
	jd, err := ToJD(500, FormatSnoopy)
	require.NoError(t, err)
	assert.InDelta(t, 500+53000+2400000.5, jd, 1e-9)
}

func TestToJDMJD(t *testing.T) {
	jd, err := ToJD(53000, FormatMJD)
	require.NoError(t, err)
	assert.InDelta(t, 2453000.5, jd, 1e-9)
}

func TestToJDUT(t *testing.T) {
	// Midnight UT, 2005-01-02 is JD 2453372.5
	jd, err := ToJD(20050102, FormatUT)
	require.NoError(t, err)
	assert.InDelta(t, 2453372.5, jd, 1e-6)

	// Fractional days carry through
	jd, err = ToJD(20050102.25, FormatUT)
	require.NoError(t, err)
	assert.InDelta(t, 2453372.75, jd, 1e-6)
}

func TestToJDUnknownFormat(t *testing.T) {
	_, err := ToJD(0, "tai")
	assert.Error(t, err)
}

func TestEnsureJD(t *testing.T) {
	// SNooPy date: below the snoopy offset
	assert.InDelta(t, 500+53000+2400000.5, EnsureJD(500), 1e-9)

	// MJD date: below the MJD offset
	assert.InDelta(t, 2453000.5, EnsureJD(53000), 1e-9)

	// Already JD: unchanged
	assert.InDelta(t, 2453372.5, EnsureJD(2453372.5), 1e-9)
}

func TestHourAngleToDegrees(t *testing.T) {
	ra, dec := HourAngleToDegrees(1, 30, 0, "+", 10, 30, 0)
	assert.InDelta(t, 22.5, ra, 1e-9)
	assert.InDelta(t, 10.5, dec, 1e-9)

	_, dec = HourAngleToDegrees(0, 0, 0, "-", 10, 30, 36)
	assert.InDelta(t, -10+30.0/60+36.0/3600, dec, 1e-9)
}
