// Command avscore wires the focus manager and speech synthesizer
// capability agent into a runnable process: it loads configuration,
// starts telemetry and a Prometheus metrics endpoint, constructs the
// two components, and drives one scripted demo Speak directive through
// them.
package main
