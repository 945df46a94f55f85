// Package launch turns a configured build node into a running worker.
//
// One launch is a linear pipeline against the node's VM: resolve the VM by
// name, optionally shut it down and revert it to a named snapshot, power it
// up, discover an address for it, and bootstrap the worker agent over SSH.
// Failure at any stage short-circuits the pipeline; the orchestrator never
// retries across stages.
//
// Two failure classes are kept strictly apart. Transient conditions (power
// transitions, address discovery) are retried within the node's configured
// budget and surface typed timeout errors carrying what was last observed.
// Configuration and credential problems (missing snapshot, rejected login)
// are surfaced immediately; retrying them would only repeat the outcome.
//
// The image-lock wait is deliberately unbounded: a locked image is an
// engine-internal operation with no defined upper bound, unlike a
// user-triggered power transition. Callers that need a hard stop must bound
// the context they pass in.
package launch
