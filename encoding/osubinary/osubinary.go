// Package osubinary implements the binary primitives shared by osu!'s
// client file formats (.osr replays, collection.db and friends): little
// endian integers, ULEB128 length prefixed strings and .NET tick timestamps.
package osubinary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnexpectedEOF is returned when a read runs past the end of the
	// underlying data
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	// ErrInvalidStringMarker is returned when a string field does not
	// begin with the empty (0x00) or present (0x0b) marker byte
	ErrInvalidStringMarker = errors.New("invalid string marker byte")
)

// stringMarker prefixes a non-empty string field
const stringMarker = 0x0b

// ticks between the .NET epoch (0001-01-01) and the unix epoch, in seconds
const dotNetEpochOffsetSeconds = 62135596800

// Decoder consumes binary fields from a byte slice front to back
type Decoder struct {
	data []byte
}

// NewDecoder returns a decoder over data. The decoder does not copy data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unconsumed bytes
func (d *Decoder) Remaining() int { return len(d.data) }

// Take consumes and returns the next n raw bytes
func (d *Decoder) Take(n int) ([]byte, error) {
	if n < 0 || n > len(d.data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrUnexpectedEOF, n, len(d.data))
	}
	out := d.data[:n]
	d.data = d.data[n:]
	return out, nil
}

// Byte consumes a single byte
func (d *Decoder) Byte() (byte, error) {
	b, err := d.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Short consumes a little endian uint16
func (d *Decoder) Short() (uint16, error) {
	b, err := d.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int consumes a little endian uint32
func (d *Decoder) Int() (uint32, error) {
	b, err := d.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Long consumes a little endian uint64
func (d *Decoder) Long() (uint64, error) {
	b, err := d.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ULEB128 consumes an unsigned LEB128 encoded integer
func (d *Decoder) ULEB128() (uint64, error) {
	var out uint64
	var shift uint
	for {
		b, err := d.Byte()
		if err != nil {
			return 0, err
		}
		out |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return out, nil
		}
		shift += 7
	}
}

// String consumes an osu! string field: a marker byte, then for non-empty
// strings a ULEB128 byte length followed by UTF-8 data
func (d *Decoder) String() (string, error) {
	marker, err := d.Byte()
	if err != nil {
		return "", err
	}
	switch marker {
	case 0x00:
		return "", nil
	case stringMarker:
	default:
		return "", fmt.Errorf("%w: 0x%02x", ErrInvalidStringMarker, marker)
	}

	length, err := d.ULEB128()
	if err != nil {
		return "", err
	}
	raw, err := d.Take(int(length))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DateTime consumes a .NET ticks timestamp (100ns intervals since
// 0001-01-01) as a UTC time
func (d *Decoder) DateTime() (time.Time, error) {
	ticks, err := d.Long()
	if err != nil {
		return time.Time{}, err
	}
	return TicksToTime(ticks), nil
}

// TicksToTime converts .NET ticks into a UTC time
func TicksToTime(ticks uint64) time.Time {
	sec := int64(ticks/1e7) - dotNetEpochOffsetSeconds
	nsec := int64(ticks%1e7) * 100
	return time.Unix(sec, nsec).UTC()
}

// TimeToTicks converts a time into .NET ticks
func TimeToTicks(t time.Time) uint64 {
	sec := t.Unix() + dotNetEpochOffsetSeconds
	return uint64(sec)*1e7 + uint64(t.Nanosecond()/100)
}

// Encoder appends binary fields to a buffer. It mirrors Decoder and exists
// for writing client data files and for round trip tests.
type Encoder struct {
	data []byte
}

// NewEncoder returns an empty encoder
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded buffer
func (e *Encoder) Bytes() []byte { return e.data }

// Byte appends a single byte
func (e *Encoder) Byte(b byte) { e.data = append(e.data, b) }

// Short appends a little endian uint16
func (e *Encoder) Short(v uint16) {
	e.data = binary.LittleEndian.AppendUint16(e.data, v)
}

// Int appends a little endian uint32
func (e *Encoder) Int(v uint32) {
	e.data = binary.LittleEndian.AppendUint32(e.data, v)
}

// Long appends a little endian uint64
func (e *Encoder) Long(v uint64) {
	e.data = binary.LittleEndian.AppendUint64(e.data, v)
}

// ULEB128 appends an unsigned LEB128 encoded integer
func (e *Encoder) ULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.data = append(e.data, b)
		if v == 0 {
			return
		}
	}
}

// String appends an osu! string field
func (e *Encoder) String(s string) {
	if s == "" {
		e.Byte(0x00)
		return
	}
	e.Byte(stringMarker)
	e.ULEB128(uint64(len(s)))
	e.data = append(e.data, s...)
}

// DateTime appends a .NET ticks timestamp
func (e *Encoder) DateTime(t time.Time) {
	e.Long(TimeToTicks(t))
}

// Raw appends raw bytes without framing
func (e *Encoder) Raw(b []byte) {
	e.data = append(e.data, b...)
}
