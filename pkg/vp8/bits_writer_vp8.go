// Copyright 2012 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package vp8

import (
	"github.com/daanv2/go-vp8enc/pkg/assert"
	"github.com/daanv2/go-vp8enc/pkg/util/tenary"
)

// minimal size of the internal buffer, in bytes
const MIN_BUFFER_SIZE = 1024

// VP8BitWriter is the boolean range coder of VP8 partitions.
// Finished bytes are appended to an internal, growable buffer. A 0xff byte
// is never written right away: it stays pending in 'run' until the next
// non-0xff byte tells whether a carry turned it into 0x00.
type VP8BitWriter struct {
	vrange  int32 // range-1
	value   int32
	run     int // number of pending 0xff bytes
	nb_bits int // number of pending bits
	// internal buffer. Re-allocated regularly.
	buf     []uint8 /* (max_pos) */
	pos     uint64
	max_pos uint64
	limit   uint64 // maximum size of buf, 0 if unbounded
	error   bool   // true in case of error
}

func VP8PutBit( /* const */ bw *VP8BitWriter, bit int, prob int) int {
	if bw.error {
		return bit
	}
	split := (bw.vrange * int32(prob)) >> 8
	if bit != 0 {
		bw.value += split + 1
		bw.vrange -= split + 1
	} else {
		bw.vrange = split
	}
	if bw.vrange < 127 { // emit 'shift' bits out and renormalize
		shift := kNorm[bw.vrange]
		bw.vrange = int32(kNewRange[bw.vrange])
		bw.value <<= shift
		bw.nb_bits += int(shift)
		if bw.nb_bits > 0 {
			Flush(bw)
		}
	}
	return bit
}

func VP8PutBitUniform( /* const */ bw *VP8BitWriter, bit int) int {
	if bw.error {
		return bit
	}
	split := bw.vrange >> 1
	if bit != 0 {
		bw.value += split + 1
		bw.vrange -= split + 1
	} else {
		bw.vrange = split
	}
	if bw.vrange < 127 {
		bw.vrange = int32(kNewRange[bw.vrange])
		bw.value <<= 1
		bw.nb_bits += 1
		if bw.nb_bits > 0 {
			Flush(bw)
		}
	}
	return bit
}

// BitWriterResize makes room for 'extra_size' more bytes. It fails, and sets
// the sticky error, if the buffer would outgrow its limit.
func BitWriterResize( /* const */ bw *VP8BitWriter, extra_size uint64) bool {
	needed_size := bw.pos + extra_size
	if needed_size < bw.pos { // wrapped around
		bw.error = true
		return false
	}
	if needed_size <= bw.max_pos {
		return true
	}
	new_size := 2 * bw.max_pos
	if new_size < needed_size {
		new_size = needed_size
	}
	if new_size < MIN_BUFFER_SIZE {
		new_size = MIN_BUFFER_SIZE
	}
	if bw.limit > 0 && new_size > bw.limit {
		if needed_size > bw.limit {
			bw.error = true
			return false
		}
		new_size = bw.limit
	}
	new_buf := make([]uint8, new_size)

	if bw.pos > 0 {
		assert.Assert(bw.buf != nil)
		copy(new_buf, bw.buf[:bw.pos])
	}

	bw.buf = new_buf
	bw.max_pos = new_size
	return true
}

func Flush( /* const */ bw *VP8BitWriter) {
	if bw.error {
		return
	}
	s := 8 + bw.nb_bits
	bits := bw.value >> s
	assert.Assert(bw.nb_bits >= 0)
	bw.value -= bits << s
	bw.nb_bits -= 8
	if bits&0xff != 0xff {
		pos := bw.pos
		if !BitWriterResize(bw, uint64(bw.run)+1) {
			return
		}
		if bits&0x100 != 0 { // overflow -> propagate carry over pending 0xff's
			if pos > 0 {
				bw.buf[pos-1]++
			}
		}
		if bw.run > 0 {
			value := tenary.If(bits&0x100 != 0, uint8(0x00), uint8(0xff))
			for ; bw.run > 0; bw.run-- {
				bw.buf[pos] = value
				pos++
			}
		}
		bw.buf[pos] = uint8(bits & 0xff)
		pos++
		bw.pos = pos
	} else {
		bw.run++ // delay writing of bytes 0xff, pending eventual carry.
	}
}

// VP8PutBits writes the 'nb_bits' low bits of 'value', MSB first, with
// uniform probability.
func VP8PutBits( /* const */ bw *VP8BitWriter, value uint32, nb_bits int) {
	assert.Assert(nb_bits > 0 && nb_bits < 32)
	for mask := uint32(1) << (nb_bits - 1); mask != 0; mask >>= 1 {
		VP8PutBitUniform(bw, tenary.If(value&mask != 0, 1, 0))
	}
}

// VP8PutSignedBits writes a non-zero flag, then the magnitude followed by the
// sign over 'nb_bits'+1 bits. A zero value costs the flag only.
func VP8PutSignedBits( /* const */ bw *VP8BitWriter, value int, nb_bits int) {
	if VP8PutBitUniform(bw, tenary.If(value != 0, 1, 0)) == 0 {
		return
	}
	if value < 0 {
		VP8PutBits(bw, uint32(-value)<<1|1, nb_bits+1)
	} else {
		VP8PutBits(bw, uint32(value)<<1, nb_bits+1)
	}
}

// Initialize the object. Allocates some initial memory based on expected_size.
func VP8BitWriterInit( /* const */ bw *VP8BitWriter, expected_size uint64) bool {
	bw.vrange = 255 - 1
	bw.value = 0
	bw.run = 0
	bw.nb_bits = -8
	bw.pos = 0
	bw.max_pos = 0
	bw.error = false
	bw.buf = nil

	if expected_size > 0 {
		return BitWriterResize(bw, expected_size)
	}
	return true
}

// VP8BitWriterSetLimit caps the internal buffer at 'max_size' bytes
// (0 removes the cap). Growing past the cap sets the error flag.
func VP8BitWriterSetLimit( /* const */ bw *VP8BitWriter, max_size uint64) {
	bw.limit = max_size
}

// Finalize the bitstream coding. Returns a pointer to the internal buffer.
func VP8BitWriterFinish( /* const */ bw *VP8BitWriter) []uint8 {
	VP8PutBits(bw, 0, 9-bw.nb_bits)
	if !bw.error {
		bw.nb_bits = 0 // pad with zeroes
		Flush(bw)
	}
	return bw.buf[:bw.pos]
}

// Release any pending memory and zeroes the object.
func VP8BitWriterWipeOut( /* const */ bw *VP8BitWriter) {
	if bw != nil {
		*bw = VP8BitWriter{}
	}
}

// Appends some bytes to the internal buffer. Data is copied.
func VP8BitWriterAppend( /* const */ bw *VP8BitWriter /*const*/, data []uint8) bool {
	if bw.nb_bits != -8 {
		return false // Flush() must have been called
	}
	if !BitWriterResize(bw, uint64(len(data))) {
		return false
	}
	copy(bw.buf[bw.pos:], data)
	bw.pos += uint64(len(data))
	return true
}

// return approximate write position (in bits)
func VP8BitWriterPos( /* const */ bw *VP8BitWriter) uint64 {
	nb_bits := 8 + bw.nb_bits // bw.nb_bits is <= 0, note
	return (bw.pos+uint64(bw.run))*8 + uint64(nb_bits)
}

// Returns the bytes written so far.
func VP8BitWriterBuf( /* const */ bw *VP8BitWriter) []uint8 {
	return bw.buf[:bw.pos]
}

// Returns the size of the internal buffer.
func VP8BitWriterSize( /* const */ bw *VP8BitWriter) uint64 {
	return bw.pos
}

// VP8BitWriterError reports whether a buffer growth failed. Once set, every
// write on 'bw' is a no-op.
func VP8BitWriterError( /* const */ bw *VP8BitWriter) bool {
	return bw.error
}
