// Package chart turns a unit-keyed dataset into plottable series and renders
// them as a PNG line chart.
//
// Units are ordered lexicographically before colors are assigned, so a unit
// keeps its color across redraws as long as the set of units preceding it is
// unchanged.
package chart
