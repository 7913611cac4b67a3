// Package preflight provides readiness checks run before a capture job
// touches the transport.
//
// A scan can run for hours and write tens of thousands of frames, so the
// output directory is created and verified up front, and the filesystem must
// have at least job.min_free_gib available. The CLI "telecine run" command
// refuses to start when any check fails.
package preflight
