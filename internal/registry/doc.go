// Package registry provides the central "glue" for the backend system.
//
// Backend modules register Descriptors mapping a file extension to an
// execution backend, together with a priority and an availability probe.
// Several descriptors may compete for the same extension; the registry
// selects exactly one per extension, once, and every resource of that
// extension is executed by the selected backend for the rest of the process.
//
// Selection keeps only descriptors whose probe reports the backend usable,
// then prefers the highest priority, breaking ties by registration order.
// Probes run at most once per process and their answers are cached, so the
// selection cannot change in the middle of a loading pass.
package registry
