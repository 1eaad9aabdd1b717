// Command unitcam captures measurement labels from a camera, submits them to
// the extraction service, and charts the stored values per unit.
//
// Subcommands:
//
//	capture      interactive capture loop with automatic retry
//	analysis     poll the analysis dataset and render the unit chart
//	data         list stored value/unit rows
//	clear        delete every stored row
//	devices      list cameras (optionally follow hotplug events)
//	check        run environment preflight checks
//	logs         show or follow the log file
//	test-notify  send a test ntfy notification
//	config       create or validate the configuration file
package main
