// Package analytics polls the unit-keyed dataset on a fixed interval and hands
// each result, rendered into chart series, to a View.
package analytics
