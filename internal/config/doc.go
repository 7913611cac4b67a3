// Package config loads, validates, and saves the telecine TOML configuration.
//
// A single file describes the rig (pins, transport timing, camera) and the job
// loaded on it (film format, perforation template, crop, calibration, frame
// range). Setup and calibration write their results back with Save, so the
// next run starts from the measured values.
package config
