// Package preflight provides readiness checks for the extraction service,
// camera device nodes and the filesystem paths unitcam writes to.
//
// The "unitcam check" command runs RunAll and prints one row per Result. The
// capture command runs CheckCameraDevice on the preferred device before
// acquiring and logs the detail when it fails.
package preflight
