// Package hardware implements the transport motor and lamp contracts on GPIO
// lines through periph.io. Lines are looked up by their registry names, so the
// same configuration works on any host periph supports.
package hardware
