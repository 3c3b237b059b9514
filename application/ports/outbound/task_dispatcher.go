package outbound

// TaskDispatcher abstracts the shared worker pool so services can run detached
// work without owning goroutine lifecycles themselves.
type TaskDispatcher interface {
	Submit(task func()) error
}
