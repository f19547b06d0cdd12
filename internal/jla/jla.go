// Package jla provides access to data releases of the SDSS-II/SNLS
// Joint Light-curve Analysis, currently the Betoule et al. 2014
// compilation of 740 spectroscopically confirmed Type Ia supernovae.
package jla

// SurveyAbbrev identifies the survey in directory layouts and lookups.
const SurveyAbbrev = "JLA"
