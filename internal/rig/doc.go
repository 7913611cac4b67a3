// Package rig assembles a telecine from configuration: the GPIO motors and
// lamp (or the film simulator), the camera, the perforation detector, the
// transport controller and the registration loop. It also writes setup and
// calibration results back into the configuration.
package rig
