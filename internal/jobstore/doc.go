// Package jobstore keeps a SQLite ledger of capture runs and the outcome of
// every frame they touched.
//
// Runs are keyed by a random UUID so repeated jobs with the same name stay
// distinct. The ledger is append-mostly: a run row is created when capture
// starts, frames are recorded as the writer stores them, and FinishRun
// stamps the terminal status and counters.
package jobstore
