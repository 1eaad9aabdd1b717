// Package camera owns the single live capture stream.
//
// Manager implements acquire/release/switch with facing-mode fallback: an exact
// facing request first, then exactly one unconstrained request, then
// services.ErrDeviceUnavailable. Concrete devices come from an Opener (see the
// opencv subpackage); tests inject fakes.
package camera
