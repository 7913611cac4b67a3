// Package transport drives the film path: the feed and pull steppers either
// side of the gate, the spool motors, and the lamp.
//
// Stepping keeps the film tensioned by periodically skipping a feed pulse and
// keeps it wound by servicing the receiving spool every takeup period. Rigs
// with stepper spools are selected at construction with Settings.FourStepper.
// A Controller is owned by one goroutine; only StopWinding may be called
// concurrently.
package transport
