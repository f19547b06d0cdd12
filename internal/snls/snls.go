// Package snls provides access to data releases from the Supernova
// Legacy Survey, currently the VLT spectroscopy release of Balland et
// al. 2009.
package snls

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "SNLS"
