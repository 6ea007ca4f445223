// Package workers runs the server's background workers (currently the
// session sweeper) behind one aggregate so the binary starts them with a
// single call.
package workers

// Worker is one background job. Run starts it and returns; implementations
// spawn their own goroutine and live for the process lifetime, like the
// session sweeper's eviction ticker.
type Worker interface {
	Run()
}
