// Package csp provides access to data releases from the Carnegie
// Supernova Project: the DR1 optical spectra (Folatelli et al. 2013)
// and the DR3 optical photometry (Krisciunas et al. 2017).
package csp

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "CSP"

const cspDataURL = "https://csp.obs.carnegiescience.edu/data/"
