// Package bsnip provides access to data releases of the Berkeley
// Supernova Ia Program, currently the second spectroscopic release of
// Stahl et al. 2020.
package bsnip

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "BSNIP"

const bsnipBaseURL = "http://heracles.astro.berkeley.edu/sndb/static/BSNIPdata2/"
