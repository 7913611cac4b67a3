// Package logs reads the telecine log file for the `telecine logs` command.
//
// Last returns the final lines of a file with bounded memory and the offset
// to continue from; Follow polls from an offset and hands each new line to a
// callback until the context ends. A missing file reads as empty so the
// command works before the first job has logged anything.
package logs
