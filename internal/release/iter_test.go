package release

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sndata/internal/fetch"
	"sndata/internal/lightcurve"
)

// fakePhotometric serves canned light curves for iteration tests.
type fakePhotometric struct {
	ids  []string
	fail string // object ID whose load fails
}

func (f *fakePhotometric) Survey() string { return "FAKE" }

func (f *fakePhotometric) Name() string { return "Test" }

func (f *fakePhotometric) DataType() string { return Photometric }

func (f *fakePhotometric) AvailableIDs() ([]string, error) { return f.ids, nil }

func (f *fakePhotometric) AvailableTables() ([]string, error) { return nil, nil }

func (f *fakePhotometric) LoadTable(string) (*Table, error) { return nil, ErrInvalidTableID }

func (f *fakePhotometric) Delete() error { return nil }

func (f *fakePhotometric) RegisterFilters(bool) error { return ErrNoFilters }

func (f *fakePhotometric) Download(context.Context, fetch.Options) error { return nil }

func (f *fakePhotometric) Photometry(objID string) (*lightcurve.Photometry, error) {
	if objID == f.fail {
		return nil, fmt.Errorf("broken file for %s", objID)
	}
	return &lightcurve.Photometry{
		Meta: lightcurve.Meta{ObjID: objID},
		Obs:  []lightcurve.Obs{{Band: "fake_" + objID}},
	}, nil
}

func TestIterPhotometryVisitsEveryObject(t *testing.T) {
	rel := &fakePhotometric{ids: []string{"a", "b", "c"}}

	var visited []string
	err := IterPhotometry(rel, nil, func(p *lightcurve.Photometry) error {
		visited = append(visited, p.Meta.ObjID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}

func TestIterPhotometrySkipsFiltered(t *testing.T) {
	rel := &fakePhotometric{ids: []string{"a", "b", "c"}}
	filter := func(p *lightcurve.Photometry) bool { return p.Meta.ObjID != "b" }

	var visited []string
	err := IterPhotometry(rel, filter, func(p *lightcurve.Photometry) error {
		visited = append(visited, p.Meta.ObjID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, visited)
}

func TestIterPhotometryStopsOnLoadError(t *testing.T) {
	rel := &fakePhotometric{ids: []string{"a", "b", "c"}, fail: "b"}

	var visited []string
	err := IterPhotometry(rel, nil, func(p *lightcurve.Photometry) error {
		visited = append(visited, p.Meta.ObjID)
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, visited)
}

func TestIterPhotometryStopsOnCallbackError(t *testing.T) {
	rel := &fakePhotometric{ids: []string{"a", "b", "c"}}
	stop := errors.New("stop")

	var visited []string
	err := IterPhotometry(rel, nil, func(p *lightcurve.Photometry) error {
		visited = append(visited, p.Meta.ObjID)
		if p.Meta.ObjID == "b" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a", "b"}, visited)
}
