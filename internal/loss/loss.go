// Package loss provides access to data releases from the Lick
// Observatory Supernova Search, currently the BVRI photometry release
// of Stahl et al. 2019.
package loss

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "LOSS"

const lossBaseURL = "http://heracles.astro.berkeley.edu/sndb/static/LOSS2/"
