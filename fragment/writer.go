package fragment

// Writer splits outbound messages into fragments under a caller-chosen
// maximum fragment size, assigning each logical message a strictly
// monotonic object-id starting at 1 (spec §4.5: "per endpoint, from 1").
type Writer struct {
	nextObjectID uint64
}

// NewWriter returns a Writer whose first message gets object-id 1.
func NewWriter() *Writer {
	return &Writer{nextObjectID: 1}
}

// Split fragments payload (a single encoded message body) into one or
// more Fragments of at most maxSize payload bytes each, using a freshly
// allocated object-id. maxSize must be at least 1; Split panics otherwise,
// since a zero or negative max cannot make progress — this is a
// programmer error in the caller's transport sizing, not a runtime
// protocol condition.
func (w *Writer) Split(payload []byte, maxSize int) []Fragment {
	if maxSize < 1 {
		panic("fragment: maxSize must be >= 1")
	}

	objectID := w.nextObjectID
	w.nextObjectID++

	if len(payload) == 0 {
		return []Fragment{{ObjectID: objectID, FragmentID: 0, Start: true, End: true, Payload: nil}}
	}

	var frags []Fragment
	for offset, fragID := 0, uint64(0); offset < len(payload); fragID++ {
		end := offset + maxSize
		if end > len(payload) {
			end = len(payload)
		}
		frags = append(frags, Fragment{
			ObjectID:   objectID,
			FragmentID: fragID,
			Start:      fragID == 0,
			End:        end == len(payload),
			Payload:    payload[offset:end],
		})
		offset = end
	}
	return frags
}

// EncodeAll is a convenience combining Split and Encode into a single byte
// stream ready to hand to a transport.
func (w *Writer) EncodeAll(payload []byte, maxSize int) []byte {
	var out []byte
	for _, f := range w.Split(payload, maxSize) {
		out = append(out, Encode(f)...)
	}
	return out
}
