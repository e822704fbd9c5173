package fragment

import "fmt"

// DefaultMaxInFlight is the default cap on concurrently reassembling
// objects (spec §4.5: "At most 256 concurrent in-flight objects").
const DefaultMaxInFlight = 256

// OutOfOrderError is raised when a fragment's id does not follow the
// previous fragment for its object-id.
type OutOfOrderError struct {
	ObjectID        uint64
	Expected, Got   uint64
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("fragment: object %d: out of order, expected fragment-id %d, got %d", e.ObjectID, e.Expected, e.Got)
}

// MissingStartError is raised when the first fragment seen for an
// object-id does not have the start flag set, or does not have
// fragment-id 0.
type MissingStartError struct {
	ObjectID uint64
}

func (e *MissingStartError) Error() string {
	return fmt.Sprintf("fragment: object %d: first fragment missing start flag / fragment-id 0", e.ObjectID)
}

// TooManyInFlightError is raised when accepting a fragment for a new
// object-id would exceed the reassembler's configured cap.
type TooManyInFlightError struct {
	Max int
}

func (e *TooManyInFlightError) Error() string {
	return fmt.Sprintf("fragment: too many in-flight objects (max %d)", e.Max)
}

type inFlight struct {
	nextFragID uint64
	buf        []byte
}

// Reassembler accumulates inbound fragments per object-id and delivers a
// complete message payload once an object's end fragment is received.
// Not safe for concurrent use (spec §5: single-threaded, non-suspending).
type Reassembler struct {
	maxInFlight int
	objects     map[uint64]*inFlight
}

// Option configures a Reassembler.
type Option func(*Reassembler)

// WithMaxInFlight overrides DefaultMaxInFlight.
func WithMaxInFlight(n int) Option {
	return func(r *Reassembler) { r.maxInFlight = n }
}

// NewReassembler returns a Reassembler with DefaultMaxInFlight unless
// overridden via WithMaxInFlight.
func NewReassembler(opts ...Option) *Reassembler {
	r := &Reassembler{maxInFlight: DefaultMaxInFlight, objects: make(map[uint64]*inFlight)}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Feed processes one inbound fragment. It returns the fully reassembled
// payload and true when f completes its object; otherwise it returns
// (nil, false, nil) having buffered f, or a non-nil error per spec §4.5 /
// §7 (MissingStart, OutOfOrder, TooManyInFlight). A returned error leaves
// the reassembler's other in-flight objects untouched — "Unterminated
// objects ... do not corrupt sibling objects."
func (r *Reassembler) Feed(f Fragment) ([]byte, bool, error) {
	obj, ok := r.objects[f.ObjectID]
	if !ok {
		if f.FragmentID != 0 || !f.Start {
			return nil, false, &MissingStartError{ObjectID: f.ObjectID}
		}
		if len(r.objects) >= r.maxInFlight {
			return nil, false, &TooManyInFlightError{Max: r.maxInFlight}
		}
		obj = &inFlight{nextFragID: 0}
		r.objects[f.ObjectID] = obj
	} else {
		if f.FragmentID != obj.nextFragID || f.Start {
			return nil, false, &OutOfOrderError{ObjectID: f.ObjectID, Expected: obj.nextFragID, Got: f.FragmentID}
		}
	}

	obj.buf = append(obj.buf, f.Payload...)
	obj.nextFragID++

	if f.End {
		delete(r.objects, f.ObjectID)
		return obj.buf, true, nil
	}
	return nil, false, nil
}

// Drop discards any in-flight state for objectID without error, for a
// caller that wants to abandon a partially-received message (e.g. after
// its own higher-level timeout, which this package does not implement —
// spec §5: "Timeouts: none in the core").
func (r *Reassembler) Drop(objectID uint64) {
	delete(r.objects, objectID)
}

// PendingObjectIDs returns the object-ids with buffered-but-incomplete
// fragments, for a caller reporting unterminated objects on transport
// close (spec §4.5).
func (r *Reassembler) PendingObjectIDs() []uint64 {
	ids := make([]uint64, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	return ids
}
