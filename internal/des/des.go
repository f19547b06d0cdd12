// Package des provides access to data releases from the Dark Energy
// Survey supernova program, currently the SN3YR release of the first
// three years of spectroscopically classified Type Ia supernovae
// (Brout et al. 2019).
package des

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "DES"

const desBaseURL = "http://desdr-server.ncsa.illinois.edu/despublic/sn_files/y3/tar_files/"
