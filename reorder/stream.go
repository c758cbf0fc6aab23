package reorder

// Source produces sequence-numbered items, signaling exhaustion with err.
type Source[T any] interface {
	Next() (seq Seq, item T, err error)
}

// Stream pulls from a Source through a bounded reorder Buffer, yielding
// items in sender sequence order (up to the buffer's window width). Once
// the source is exhausted, Stream drains the remaining buffered items in
// ascending order before itself signaling exhaustion.
type Stream[T any] struct {
	src      Source[T]
	buf      *Buffer[T]
	draining bool
	srcErr   error
}

// NewStream constructs a Stream with reorder width w over src.
func NewStream[T any](src Source[T], w int) (*Stream[T], error) {
	buf, err := NewBuffer[T](w)
	if err != nil {
		return nil, err
	}
	return &Stream[T]{src: src, buf: buf}, nil
}

// Next returns the next item in sender order, or the source's terminal
// error (typically wire.ErrSourceExhausted) once the buffer has drained.
func (s *Stream[T]) Next() (T, error) {
	var zero T
	if !s.draining {
		for !s.buf.Full() {
			seq, item, err := s.src.Next()
			if err != nil {
				s.draining = true
				s.srcErr = err
				break
			}
			s.buf.Admit(seq, item)
		}
	}

	item, ok := s.buf.Pop()
	if !ok {
		return zero, s.srcErr
	}

	if !s.draining {
		seq, next, err := s.src.Next()
		if err != nil {
			s.draining = true
			s.srcErr = err
		} else {
			s.buf.Admit(seq, next)
		}
	}

	return item, nil
}
