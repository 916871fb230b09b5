package enc

// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Paginated token buffer
//
//  A 'token' is a bit value associated with a probability, either fixed
// or a later-to-be-determined after statistics have been collected.
// For dynamic probability, we just record the slot id (idx) for the probability
// value in the final probability array (probas in VP8EmitTokens).
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"github.com/daanv2/go-vp8enc/pkg/assert"
	"github.com/daanv2/go-vp8enc/pkg/generics"
	"github.com/daanv2/go-vp8enc/pkg/stdlib"
	"github.com/daanv2/go-vp8enc/pkg/util/tenary"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

// we use pages to reduce the number of re-allocations
const MIN_PAGE_SIZE = 2048 // minimum number of token per page
const FIXED_PROBA_BIT = uint16(1) << 14

// bit #15: bit value
// bit #14: flags for constant proba or idx
// bits #0..13: slot or constant proba
type VP8Token uint16

func (token VP8Token) Bit() int {
	return int(token>>15) & 1
}

// IsConstant reports whether the token carries its own probability.
func (token VP8Token) IsConstant() bool {
	return uint16(token)&FIXED_PROBA_BIT != 0
}

func (token VP8Token) Proba() uint8 {
	return uint8(token & 0xff)
}

func (token VP8Token) Slot() int {
	return int(token & 0x3fff)
}

//------------------------------------------------------------------------------

func VP8TBufferInit(b *VP8TBuffer, page_size int) {
	b.pages = nil
	b.left = 0
	b.page_size = tenary.If(page_size < MIN_PAGE_SIZE, MIN_PAGE_SIZE, page_size)
	b.replayed = false
	b.error = false
}

// VP8TBufferSetLimit caps the number of pages the buffer may allocate
// (0 removes the cap). Needing one more page sets the error flag.
func VP8TBufferSetLimit(b *VP8TBuffer, max_pages int) {
	b.max_pages = max_pages
}

// de-allocate pages memory
func VP8TBufferClear(b *VP8TBuffer) {
	if b != nil {
		VP8TBufferInit(b, b.page_size)
	}
}

func TBufferNewPage(b *VP8TBuffer) bool {
	if b.error {
		return false
	}
	if b.max_pages > 0 && len(b.pages) >= b.max_pages {
		b.error = true
		return false
	}
	b.pages = append(b.pages, make([]VP8Token, b.page_size))
	b.left = b.page_size
	return true
}

// Number of recorded tokens.
func VP8TBufferSize(b *VP8TBuffer) int {
	if len(b.pages) == 0 {
		return 0
	}
	return len(b.pages)*b.page_size - b.left
}

// Memory held by the token pages, in bytes.
func VP8TBufferMemory(b *VP8TBuffer) int {
	return len(b.pages) * b.page_size * generics.SizeOf[VP8Token]()
}

// VP8TBufferError reports whether a page allocation failed.
func VP8TBufferError(b *VP8TBuffer) bool {
	return b.error
}

// VP8TBufferForEach calls 'fn' on every recorded token, in recording order.
func VP8TBufferForEach(b *VP8TBuffer, fn func(token VP8Token)) {
	b.replayed = true
	for i, tokens := range b.pages {
		// the last page is only filled down to 'left'
		N := tenary.If(i == len(b.pages)-1, b.left, 0)
		for n := b.page_size - 1; n >= N; n-- {
			fn(tokens[n])
		}
	}
}

//------------------------------------------------------------------------------

func AddToken(b *VP8TBuffer, bit int, proba_idx int) int {
	assert.Assert(proba_idx >= 0 && proba_idx < int(FIXED_PROBA_BIT))
	assert.Assert(bit == 0 || bit == 1)
	assert.Assertf(!b.replayed, "token recorded after the buffer was read back")
	if b.left > 0 || TBufferNewPage(b) {
		b.left--
		slot := b.left
		b.pages[len(b.pages)-1][slot] = VP8Token(bit<<15 | proba_idx)
	}
	return bit
}

func AddConstantToken(b *VP8TBuffer, bit int, proba int) {
	assert.Assert(proba >= 0 && proba < 256)
	assert.Assert(bit == 0 || bit == 1)
	assert.Assertf(!b.replayed, "token recorded after the buffer was read back")
	if b.left > 0 || TBufferNewPage(b) {
		b.left--
		slot := b.left
		b.pages[len(b.pages)-1][slot] = VP8Token(bit<<15 | int(FIXED_PROBA_BIT) | proba)
	}
}

// record the coding of coefficients without knowing the probabilities yet
func VP8RecordCoeffTokens(ctx int, res *VP8Residual, tokens *VP8TBuffer) {
	coeffs := res.coeffs
	coeff_type := res.coeff_type
	last := res.last
	n := res.first
	// should be VP8EncBands[n], but it's equivalent for n=0 or 1
	base_id := TOKEN_ID(coeff_type, n, ctx)
	if AddToken(tokens, b2i(last >= 0), base_id+0) == 0 {
		return
	}

	for n < 16 {
		c := int(coeffs[n])
		n++
		sign := c < 0
		v := stdlib.Abs(c)
		if AddToken(tokens, b2i(v != 0), base_id+1) == 0 {
			base_id = TOKEN_ID(coeff_type, int(VP8EncBands[n]), 0) // ctx=0
			continue
		}
		if AddToken(tokens, b2i(v > 1), base_id+2) == 0 {
			base_id = TOKEN_ID(coeff_type, int(VP8EncBands[n]), 1) // ctx=1
		} else {
			if AddToken(tokens, b2i(v > 4), base_id+3) == 0 {
				if AddToken(tokens, b2i(v != 2), base_id+4) != 0 {
					AddToken(tokens, b2i(v == 4), base_id+5)
				}
			} else if AddToken(tokens, b2i(v > 10), base_id+6) == 0 {
				if AddToken(tokens, b2i(v > 6), base_id+7) == 0 {
					AddConstantToken(tokens, b2i(v == 6), 159)
				} else {
					AddConstantToken(tokens, b2i(v >= 9), 165)
					AddConstantToken(tokens, b2i(v&1 == 0), 145)
				}
			} else {
				var mask int
				var tab []uint8
				residue := v - 3
				if residue < (8 << 1) { // VP8Cat3  (3b)
					AddToken(tokens, 0, base_id+8)
					AddToken(tokens, 0, base_id+9)
					residue -= (8 << 0)
					mask = 1 << 2
					tab = VP8Cat3
				} else if residue < (8 << 2) { // VP8Cat4  (4b)
					AddToken(tokens, 0, base_id+8)
					AddToken(tokens, 1, base_id+9)
					residue -= (8 << 1)
					mask = 1 << 3
					tab = VP8Cat4
				} else if residue < (8 << 3) { // VP8Cat5  (5b)
					AddToken(tokens, 1, base_id+8)
					AddToken(tokens, 0, base_id+10)
					residue -= (8 << 2)
					mask = 1 << 4
					tab = VP8Cat5
				} else { // VP8Cat6 (11b)
					AddToken(tokens, 1, base_id+8)
					AddToken(tokens, 1, base_id+10)
					residue -= (8 << 3)
					mask = 1 << 10
					tab = VP8Cat6
				}
				assert.Assert(residue < 2*mask)
				for _, proba := range tab {
					AddConstantToken(tokens, b2i(residue&mask != 0), int(proba))
					mask >>= 1
				}
			}
			base_id = TOKEN_ID(coeff_type, int(VP8EncBands[n]), 2) // ctx=2
		}
		AddConstantToken(tokens, b2i(sign), 128)
		if n == 16 || AddToken(tokens, b2i(n <= last), base_id+0) == 0 {
			return // EOB
		}
	}
}

//------------------------------------------------------------------------------
// Statistics pass

// Collects, for every DYNAMIC token, how often its slot was used and how
// often it coded a 1. Tokens are left untouched.
func VP8AccumulateTokenStats(b *VP8TBuffer, stats []proba_t) {
	assert.Assert(len(stats) >= vp8.NUM_PROBA_SLOTS)
	VP8TBufferForEach(b, func(token VP8Token) {
		if !token.IsConstant() {
			VP8RecordStats(token.Bit(), &stats[token.Slot()])
		}
	})
}

//------------------------------------------------------------------------------
// Final coding pass, with known probabilities

// Finalizes bitstream when probabilities are known.
// Deletes the allocated token memory if final_pass is true.
// Returns false, without writing anything, if a page allocation failed
// while recording.
func VP8EmitTokens(b *VP8TBuffer, bw *vp8.VP8BitWriter, probas []uint8, final_pass bool) bool {
	if b.error {
		return false
	}
	assert.Assert(len(probas) >= vp8.NUM_PROBA_SLOTS)
	VP8TBufferForEach(b, func(token VP8Token) {
		if token.IsConstant() {
			vp8.VP8PutBit(bw, token.Bit(), int(token.Proba())) // constant proba
		} else {
			vp8.VP8PutBit(bw, token.Bit(), int(probas[token.Slot()]))
		}
	})
	if final_pass {
		VP8TBufferClear(b)
	}
	return true
}

// Size estimation
// Estimate the final coded size given a set of 'probas', in 1/256 bit units.
func VP8EstimateTokenSize(b *VP8TBuffer, probas []uint8) uint64 {
	var size uint64
	VP8TBufferForEach(b, func(token VP8Token) {
		if token.IsConstant() {
			size += uint64(VP8BitCost(token.Bit(), token.Proba()))
		} else {
			size += uint64(VP8BitCost(token.Bit(), probas[token.Slot()]))
		}
	})
	return size
}

func b2i(b bool) int {
	return tenary.If(b, 1, 0)
}
