package protocol

import (
	"errors"
	"fmt"

	"github.com/udisondev/dcolony/internal/constants"
)

// Frame layout:
//
//	[0]    length low 8 bits
//	[1]    counter<<4 | length high 4 bits
//	[2..]  payload
//	[n-1]  0x00 terminator
//
// The 12-bit length covers the whole frame including the two header bytes
// and the terminator. The counter nibble is a per-connection rolling
// sequence number advanced on every sent frame.

var (
	// ErrOverlongFrame reports a payload that cannot fit the 12-bit length field.
	ErrOverlongFrame = errors.New("frame exceeds maximum size")

	// ErrMalformedFrame reports a header whose length field is below the fixed overhead.
	ErrMalformedFrame = errors.New("malformed frame length")
)

// EncodeFrame writes the header and terminator around a payload already placed
// at buf[constants.FrameHeaderSize : constants.FrameHeaderSize+payloadLen].
// Returns the total frame length.
// buf must have room for payloadLen + constants.FrameOverhead bytes.
func EncodeFrame(buf []byte, counter byte, payloadLen int) (int, error) {
	if payloadLen > constants.MaxPayloadSize {
		return 0, fmt.Errorf("%w: payload %d bytes", ErrOverlongFrame, payloadLen)
	}
	total := payloadLen + constants.FrameOverhead
	if len(buf) < total {
		return 0, fmt.Errorf("encode frame: buffer too small (need %d, have %d)", total, len(buf))
	}

	buf[0] = byte(total)
	buf[1] = (counter&constants.CounterMask)<<4 | byte(total>>8)
	buf[total-1] = 0x00
	return total, nil
}

// Decoder reassembles frames from a TCP byte stream. A single read chunk may
// carry several back-to-back frames or end in the middle of one, so the
// decoder keeps unconsumed bytes between feeds.
//
// Not safe for concurrent use; each connection owns its own decoder.
type Decoder struct {
	buf []byte
}

// NewDecoder returns a decoder with room for a typical read chunk.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, constants.DefaultReadBufSize)}
}

// Feed appends a received chunk to the pending stream.
// Bodies returned by earlier Next calls become invalid.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts the next complete frame body (payload without header and
// terminator) from the pending stream, together with the sender's counter
// nibble. Returns a nil body when the remaining bytes do not yet form a
// complete frame; the caller should read more and Feed again.
//
// A header announcing a length below the fixed overhead yields
// ErrMalformedFrame; the header bytes are dropped so the stream can
// resynchronize on the next call.
//
// The returned body aliases the decoder's buffer and is valid until the
// next Feed call.
func (d *Decoder) Next() ([]byte, byte, error) {
	if len(d.buf) < constants.FrameHeaderSize {
		return nil, 0, nil
	}

	length := int(d.buf[0]) | int(d.buf[1]&0x0F)<<8
	counter := d.buf[1] >> 4
	if length < constants.FrameOverhead {
		d.buf = d.buf[constants.FrameHeaderSize:]
		return nil, counter, fmt.Errorf("%w: announced %d bytes", ErrMalformedFrame, length)
	}
	if len(d.buf) < length {
		return nil, 0, nil
	}

	body := d.buf[constants.FrameHeaderSize : length-constants.FrameTerminatorSize]
	d.buf = d.buf[length:]
	return body, counter, nil
}

// Pending reports how many buffered bytes await a complete frame.
func (d *Decoder) Pending() int {
	return len(d.buf)
}
