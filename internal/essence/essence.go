// Package essence provides access to data releases from the ESSENCE
// survey of high-redshift supernovae, currently the six-year
// photometric release of Narayan et al. 2016.
package essence

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "ESSENCE"
