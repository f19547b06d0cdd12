package lightcurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFluxFromMag(t *testing.T) {
	// A magnitude equal to the zeropoint is unit flux.
	flux, fluxErr := FluxFromMag(25, 0.1, 25)
	assert.InDelta(t, 1.0, flux, 1e-12)
	assert.InDelta(t, math.Ln10*0.1/2.5, fluxErr, 1e-12)

	// 2.5 mag brighter than the zeropoint is 10x flux.
	flux, _ = FluxFromMag(22.5, 0, 25)
	assert.InDelta(t, 10.0, flux, 1e-9)
}

func TestRowsFlattenMeta(t *testing.T) {
	p := &Photometry{
		Meta: Meta{ObjID: "2004ef", RA: Float(12.5), Z: Float(0.031)},
		Obs: []Obs{
			{Time: 2453000.5, Band: "csp_dr3_B", Flux: 1.5, FluxErr: 0.1, ZP: 25, ZPSys: "ab"},
			{Time: 2453001.5, Band: "csp_dr3_V", Flux: 1.4, FluxErr: 0.1, ZP: 25, ZPSys: "ab"},
		},
	}

	rows := p.Rows("CSP", "DR3")
	assert.Len(t, rows, 2)
	assert.Equal(t, "CSP", rows[0].Survey)
	assert.Equal(t, "2004ef", rows[0].ObjID)
	assert.Equal(t, 12.5, rows[0].RA)
	assert.Zero(t, rows[0].Dec) // unpublished coordinate flattens to zero
	assert.Equal(t, "csp_dr3_V", rows[1].Band)
}
