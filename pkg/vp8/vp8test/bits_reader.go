// Copyright 2010 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

// Package vp8test provides a byte-at-a-time VP8 boolean decoder, used by
// tests to check that encoded partitions decode back to what was coded.
package vp8test

type VP8BitReader struct {
	buf       []uint8
	pos       int
	value     uint32 // current window, 16 bits
	vrange    uint32 // current range, in [128, 255] between calls
	bit_count int    // bits consumed from the low byte of 'value'
}

// Initialize the boolean decoder on 'data'.
func VP8InitBitReader(data []uint8) *VP8BitReader {
	br := &VP8BitReader{buf: data, vrange: 255}
	br.value = uint32(loadByte(br))<<8 | uint32(loadByte(br))
	return br
}

// loadByte returns the next input byte. Past the end of the input the
// stream is zero-extended, which is how the writer pads it.
func loadByte(br *VP8BitReader) uint8 {
	var b uint8
	if br.pos < len(br.buf) {
		b = br.buf[br.pos]
	}
	br.pos++
	return b
}

// Read a bit with proba 'prob'.
func VP8GetBit(br *VP8BitReader, prob int) int {
	split := 1 + (((br.vrange - 1) * uint32(prob)) >> 8)
	big_split := split << 8
	bit := 0
	if br.value >= big_split {
		bit = 1
		br.vrange -= split
		br.value -= big_split
	} else {
		br.vrange = split
	}
	for br.vrange < 128 {
		br.value <<= 1
		br.vrange <<= 1
		br.bit_count++
		if br.bit_count == 8 {
			br.bit_count = 0
			br.value |= uint32(loadByte(br))
		}
	}
	return bit
}

func VP8Get(br *VP8BitReader) int {
	return VP8GetBit(br, 0x80)
}

// return the next value made of 'bits' bits
func VP8GetValue(br *VP8BitReader, bits int) uint32 {
	v := uint32(0)
	for bits > 0 {
		bits--
		v |= uint32(VP8Get(br)) << bits
	}
	return v
}

// return the next value with sign-extension.
func VP8GetSignedValue(br *VP8BitReader, bits int) int {
	value := int(VP8GetValue(br, bits))
	if VP8Get(br) != 0 {
		return -value
	}
	return value
}

// VP8GetOptionalSigned reads a presence flag followed, when set, by a
// signed value of 'bits' bits.
func VP8GetOptionalSigned(br *VP8BitReader, bits int) int {
	if VP8Get(br) == 0 {
		return 0
	}
	return VP8GetSignedValue(br, bits)
}

// Consumed returns the number of input bytes read so far, the two bytes
// loaded at init included.
func Consumed(br *VP8BitReader) int {
	return br.pos
}
