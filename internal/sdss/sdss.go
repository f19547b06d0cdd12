// Package sdss provides access to data releases of the SDSS-II
// Supernova Survey, currently the spectroscopic portion of the Sako et
// al. 2018 release.
package sdss

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "SDSS"

const sdssPaperURL = "https://data.sdss.org/sas/dr10/boss/papers/supernova/"
