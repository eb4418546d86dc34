package bits

// Bit-level access to the attribute region.
//
// Fields in the attribute region are not byte aligned.  A field can start anywhere in a byte and
// run on into as many following bytes as it needs (up to 32 bits, for Experience).
//
// The reader hands back bits in "stream order": each byte is taken bit-reversed, and bits read earlier
// end up in the more significant positions of the result.  Callers reverse the result over the
// field's width (Reverse_bits) to get the real value, whose least significant bit is the first bit read.
// Taken together that is plain LSB-first packing, which is what the writer produces directly.
// So: Reverse_bits(Read_bits(n), n) undoes Write_bits(v, n), and nothing else needs reversing.

import (
	"errors"
	"fmt"
)

const MAX_WIDTH = 32

var (
	ErrShortBuffer = errors.New("ran out of bytes")
	ErrWidth       = errors.New("bad field width")
	ErrOverflow    = errors.New("value does not fit in field")
)

// Reverse_bits reverses the lowest n bits of in.  Anything above bit n is thrown away.
func Reverse_bits(in uint32, n int) uint32 {
	out := uint32(0)
	for i := 0; i < n; i += 1 {
		out = out<<1 | in&1
		in >>= 1
	}
	return out
}

func reverse_byte(b byte) byte {
	return byte(Reverse_bits(uint32(b), 8))
}

func mask(n int) uint64 {
	return uint64(1)<<uint(n) - 1
}

func check_width(n int) error {
	if n < 0 || n > MAX_WIDTH {
		return fmt.Errorf("%w: %v (must be 0-%v)", ErrWidth, n, MAX_WIDTH)
	}
	return nil
}

// Reader is a bit cursor over a byte buffer.
type Reader struct {
	data      []byte
	next      int  // index of the next byte to load
	cur       byte // current byte, already reversed
	remaining int  // unread bits in cur
	touched   int
}

func New_reader(data []byte) *Reader {
	return &Reader{data: data}
}

// Read_bits reads n bits, in stream order.
// If the buffer runs out part way through, the reader is left wherever it got to, and that's an error.
func (r *Reader) Read_bits(n int) (uint32, error) {
	if err := check_width(n); err != nil {
		return 0, err
	}

	out := uint64(0)
	for n > 0 {
		if r.remaining == 0 {
			if r.next >= len(r.data) {
				return 0, fmt.Errorf("%w: wanted %v more bits after %v bytes", ErrShortBuffer, n, r.touched)
			}
			r.cur = reverse_byte(r.data[r.next])
			r.next += 1
			r.remaining = 8
			r.touched += 1
		}

		take := min(n, r.remaining)
		chunk := uint64(r.cur>>(r.remaining-take)) & mask(take)
		// Earlier bits move up to make space for the new ones
		out = out<<take | chunk

		r.remaining -= take
		n -= take
	}

	return uint32(out), nil
}

// Read_field reads an n-bit field and returns its real value (i.e. Read_bits, un-reversed)
func (r *Reader) Read_field(n int) (uint32, error) {
	v, err := r.Read_bits(n)
	if err != nil {
		return 0, err
	}
	return Reverse_bits(v, n), nil
}

// Bytes_touched is the number of bytes the reader has started on so far, including a partially read one.
func (r *Reader) Bytes_touched() int {
	return r.touched
}

// Writer packs bits LSB-first into a buffer that grows as needed.
// New bytes start zeroed and bits are ORed in.
type Writer struct {
	data []byte
	bit  int // total bits written
}

func New_writer() *Writer {
	return &Writer{}
}

// Write_bits writes the lowest n bits of val.  val must fit in n bits.
func (w *Writer) Write_bits(val uint32, n int) error {
	if err := check_width(n); err != nil {
		return err
	}
	if uint64(val) > mask(n) {
		return fmt.Errorf("%w: %v in %v bits", ErrOverflow, val, n)
	}

	v := uint64(val)
	for n > 0 {
		offset := w.bit % 8
		if offset == 0 {
			w.data = append(w.data, 0)
		}

		take := min(n, 8-offset)
		w.data[len(w.data)-1] |= byte((v & mask(take)) << offset)

		v >>= take
		n -= take
		w.bit += take
	}

	return nil
}

// Bytes_touched is the number of bytes containing at least one written bit.
func (w *Writer) Bytes_touched() int {
	return len(w.data)
}

// Bytes returns the written bytes.  The last one is zero-padded in its high bits.
func (w *Writer) Bytes() []byte {
	return w.data
}
