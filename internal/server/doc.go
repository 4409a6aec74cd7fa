/*
Package server provides HTTP server lifecycle management: non-blocking
start, graceful shutdown and OS signal handling.

Manager wraps net/http.Server, coordinating listener setup, serving,
shutdown and error propagation through one small type. avs-core uses it
to run the Prometheus metrics endpoint alongside the focus manager and
speech synthesizer, which speak no HTTP themselves.
*/
package server
