/*
Package pool provides a bounded goroutine pool for controlled
concurrency. avs-core's demo attachment manager uses it to fetch
several referenced audio blobs in parallel instead of serializing
their I/O behind the directive that references them.
*/
package pool
