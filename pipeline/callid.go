package pipeline

// callIDAllocator hands out monotonically increasing host-call ids, unique
// within a pipeline's lifetime, modeled on go-psrp's client/call_id.go.
// Unlike that original, this is a plain counter rather than an atomic one:
// spec.md §5 mandates the whole core be single-threaded, so there is no
// cross-goroutine access here to guard against.
type callIDAllocator struct {
	id int64
}

func (a *callIDAllocator) Next() int64 {
	a.id++
	return a.id
}

func (a *callIDAllocator) Current() int64 {
	return a.id
}
