// Package simulator provides a virtual film strip for tests and dry runs.
// The strip moves a fixed number of pixels per transport step, so
// calibration results can be checked against exact values.
package simulator
