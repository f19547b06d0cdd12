// Package surveys enumerates the supported data releases so downstream
// tools can discover them by survey and release name.
package surveys

import (
	"fmt"
	"strings"

	"sndata/internal/bsnip"
	"sndata/internal/common"
	"sndata/internal/csp"
	"sndata/internal/des"
	"sndata/internal/essence"
	"sndata/internal/jla"
	"sndata/internal/loss"
	"sndata/internal/release"
	"sndata/internal/sdss"
	"sndata/internal/snls"
)

// All returns every supported release rooted in the configured data
// directory, ordered by survey and release name.
func All(cfg *common.Config) []release.Release {
	return []release.Release{
		bsnip.NewStahl20(cfg),
		csp.NewDR1(cfg),
		csp.NewDR3(cfg),
		des.NewSN3YR(cfg),
		essence.NewNarayan16(cfg),
		jla.NewBetoule14(cfg),
		loss.NewStahl19(cfg),
		sdss.NewSako18Spec(cfg),
		snls.NewBalland09(cfg),
	}
}

// Find returns the release matching a survey abbreviation and release
// name. Matching is case insensitive.
func Find(cfg *common.Config, survey, name string) (release.Release, error) {
	for _, rel := range All(cfg) {
		if strings.EqualFold(rel.Survey(), survey) && strings.EqualFold(rel.Name(), name) {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("unknown release %s/%s", survey, name)
}

// Parse resolves a comma separated list of "SURVEY/RELEASE" specs. An
// empty spec selects every release.
func Parse(cfg *common.Config, specs string) ([]release.Release, error) {
	if strings.TrimSpace(specs) == "" {
		return All(cfg), nil
	}

	var out []release.Release
	for _, spec := range strings.Split(specs, ",") {
		spec = strings.TrimSpace(spec)
		survey, name, ok := strings.Cut(spec, "/")
		if !ok {
			return nil, fmt.Errorf("malformed release spec %q, want SURVEY/RELEASE", spec)
		}
		rel, err := Find(cfg, survey, name)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

// Photometric filters a release list down to the photometric releases.
func Photometric(rels []release.Release) []release.PhotometricRelease {
	var out []release.PhotometricRelease
	for _, rel := range rels {
		if p, ok := rel.(release.PhotometricRelease); ok {
			out = append(out, p)
		}
	}
	return out
}
