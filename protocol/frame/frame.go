package frame

import "bytes"

const (
	// Delimiter terminates every outbound frame.
	Delimiter byte = '\n'

	carriageReturn byte = '\r'
)

// Decoder splits an inbound byte stream into newline-terminated frames.
//
// Accepted delimiters are "\n", "\r\n" and a bare "\r". A trailing segment
// with no delimiter stays pending until a later chunk completes it. Empty
// frames are dropped. Decoder is not safe for concurrent use; one decoder
// belongs to one connection.
type Decoder struct {
	pending []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Push consumes one chunk and returns the frames it completed, in order.
// Returned frames do not alias chunk or decoder memory.
func (d *Decoder) Push(chunk []byte) [][]byte {
	var frames [][]byte
	start := 0
	for i, b := range chunk {
		if b != Delimiter && b != carriageReturn {
			continue
		}
		seg := chunk[start:i]
		if len(d.pending) > 0 {
			seg = append(d.pending, seg...)
			d.pending = nil
		}
		if len(seg) > 0 {
			frames = append(frames, bytes.Clone(seg))
		}
		start = i + 1
	}
	if start < len(chunk) {
		d.pending = append(d.pending, chunk[start:]...)
	}
	return frames
}

// Pending reports the number of buffered bytes not yet terminated.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Reset drops any buffered fragment.
func (d *Decoder) Reset() {
	d.pending = nil
}

// Append writes one frame plus its delimiter onto dst.
func Append(dst, frame []byte) []byte {
	dst = append(dst, frame...)
	return append(dst, Delimiter)
}

// Join concatenates frames into one payload, each terminated by "\n".
func Join(frames [][]byte) []byte {
	size := 0
	for _, f := range frames {
		size += len(f) + 1
	}
	out := make([]byte, 0, size)
	for _, f := range frames {
		out = Append(out, f)
	}
	return out
}
