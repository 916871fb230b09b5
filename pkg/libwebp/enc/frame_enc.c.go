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
//   frame coding
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/daanv2/go-vp8enc/pkg/assert"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/stdlib"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

//------------------------------------------------------------------------------
// Tables for level coding

var (
	VP8Cat3 = []uint8{173, 148, 140}
	VP8Cat4 = []uint8{176, 155, 140, 135}
	VP8Cat5 = []uint8{180, 157, 141, 134, 130}
	VP8Cat6 = []uint8{254, 254, 243, 230, 196, 177, 153, 140, 133, 130, 129}

	// band of each coefficient position, padded with a sentinel
	VP8EncBands = [16 + 1]uint8{0, 1, 2, 3, 6, 4, 5, 6, 6, 6, 6, 6, 6, 6, 6, 7, 0}
)

//------------------------------------------------------------------------------
// Token probabilities

// Collect statistics and deduce probabilities for next coding pass.
func CalcTokenProba(nb int, total int) int {
	assert.Assert(nb <= total)
	if nb == 0 {
		return 255
	}
	return 255 - nb*255/total
}

// Cost of coding 'nb' 1's and 'total-nb' 0's using 'proba' probability.
func BranchCost(nb int, total int, proba int) int {
	return nb*VP8BitCost(1, uint8(proba)) + (total-nb)*VP8BitCost(0, uint8(proba))
}

func ResetTokenStats(enc *VP8Encoder) {
	var proba *VP8EncProba = &enc.proba
	clear(proba.stats[:])
}

// Chooses, for every slot, between the base probability and the one
// deduced from the collected statistics. A slot only switches when the
// bits saved pay for signaling the new value.
// Return the total bit-cost for coding the probability updates.
func FinalizeTokenProbas(proba *VP8EncProba) int {
	has_changed := false
	size := 0
	proba.nb_updates = 0
	for i := 0; i < vp8.NUM_PROBA_SLOTS; i++ {
		stats := proba.stats[i]
		nb := int((stats >> 0) & 0xffff)
		total := int((stats >> 16) & 0xffff)
		update_proba := proba.update[i]
		old_p := int(proba.base[i])
		new_p := CalcTokenProba(nb, total)
		old_cost := BranchCost(nb, total, old_p) + VP8BitCost(0, update_proba)
		new_cost := BranchCost(nb, total, new_p) + VP8BitCost(1, update_proba) + 8*256
		use_new_p := old_cost > new_cost
		size += VP8BitCost(b2i(use_new_p), update_proba)
		if use_new_p { // only use proba that seem meaningful enough.
			proba.coeffs[i] = uint8(new_p)
			if new_p != old_p {
				has_changed = true
				proba.nb_updates++
			}
			size += 8 * 256
		} else {
			proba.coeffs[i] = uint8(old_p)
		}
	}
	proba.dirty = has_changed
	return size
}

//------------------------------------------------------------------------------
// Coefficient coding

// Codes the coefficients of 'res' straight into 'bw', with the current
// probabilities. Returns 1 if the block has a non-zero coefficient.
func PutCoeffs(bw *vp8.VP8BitWriter, ctx int, res *VP8Residual) int {
	n := res.first
	// should be prob[VP8EncBands[n]], but it's equivalent for n=0 or 1
	p := res.prob[TOKEN_ID(res.coeff_type, n, ctx):]
	if vp8.VP8PutBit(bw, b2i(res.last >= 0), int(p[0])) == 0 {
		return 0
	}

	for n < 16 {
		c := int(res.coeffs[n])
		n++
		sign := c < 0
		v := stdlib.Abs(c)
		if vp8.VP8PutBit(bw, b2i(v != 0), int(p[1])) == 0 {
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 0):]
			continue
		}
		if vp8.VP8PutBit(bw, b2i(v > 1), int(p[2])) == 0 {
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 1):]
		} else {
			if vp8.VP8PutBit(bw, b2i(v > 4), int(p[3])) == 0 {
				if vp8.VP8PutBit(bw, b2i(v != 2), int(p[4])) != 0 {
					vp8.VP8PutBit(bw, b2i(v == 4), int(p[5]))
				}
			} else if vp8.VP8PutBit(bw, b2i(v > 10), int(p[6])) == 0 {
				if vp8.VP8PutBit(bw, b2i(v > 6), int(p[7])) == 0 {
					vp8.VP8PutBit(bw, b2i(v == 6), 159)
				} else {
					vp8.VP8PutBit(bw, b2i(v >= 9), 165)
					vp8.VP8PutBit(bw, b2i(v&1 == 0), 145)
				}
			} else {
				var mask int
				var tab []uint8
				if v < 3+(8<<1) { // VP8Cat3  (3b)
					vp8.VP8PutBit(bw, 0, int(p[8]))
					vp8.VP8PutBit(bw, 0, int(p[9]))
					v -= 3 + (8 << 0)
					mask = 1 << 2
					tab = VP8Cat3
				} else if v < 3+(8<<2) { // VP8Cat4  (4b)
					vp8.VP8PutBit(bw, 0, int(p[8]))
					vp8.VP8PutBit(bw, 1, int(p[9]))
					v -= 3 + (8 << 1)
					mask = 1 << 3
					tab = VP8Cat4
				} else if v < 3+(8<<3) { // VP8Cat5  (5b)
					vp8.VP8PutBit(bw, 1, int(p[8]))
					vp8.VP8PutBit(bw, 0, int(p[10]))
					v -= 3 + (8 << 2)
					mask = 1 << 4
					tab = VP8Cat5
				} else { // VP8Cat6 (11b)
					vp8.VP8PutBit(bw, 1, int(p[8]))
					vp8.VP8PutBit(bw, 1, int(p[10]))
					v -= 3 + (8 << 3)
					mask = 1 << 10
					tab = VP8Cat6
				}
				for _, proba := range tab {
					vp8.VP8PutBit(bw, b2i(v&mask != 0), int(proba))
					mask >>= 1
				}
			}
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 2):]
		}
		vp8.VP8PutBitUniform(bw, b2i(sign))
		if n == 16 || vp8.VP8PutBit(bw, b2i(n <= res.last), int(p[0])) == 0 {
			return 1 // EOB
		}
	}
	return 1
}

// Same as PutCoeffs, but doesn't actually write anything.
// Instead, it just records the event distribution.
func VP8RecordCoeffs(ctx int, res *VP8Residual) int {
	n := res.first
	s := res.stats[TOKEN_ID(res.coeff_type, n, ctx):]
	if VP8RecordStats(b2i(res.last >= 0), &s[0]) == 0 {
		return 0
	}

	for n < 16 {
		c := int(res.coeffs[n])
		n++
		v := stdlib.Abs(c)
		if VP8RecordStats(b2i(v != 0), &s[1]) == 0 {
			s = res.stats[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 0):]
			continue
		}
		if VP8RecordStats(b2i(v > 1), &s[2]) == 0 {
			s = res.stats[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 1):]
		} else {
			if VP8RecordStats(b2i(v > 4), &s[3]) == 0 {
				if VP8RecordStats(b2i(v != 2), &s[4]) != 0 {
					VP8RecordStats(b2i(v == 4), &s[5])
				}
			} else if VP8RecordStats(b2i(v > 10), &s[6]) == 0 {
				VP8RecordStats(b2i(v > 6), &s[7])
			} else {
				residue := v - 3
				VP8RecordStats(b2i(residue >= (8<<2)), &s[8])
				if residue < (8 << 2) {
					VP8RecordStats(b2i(residue >= (8<<1)), &s[9])
				} else {
					VP8RecordStats(b2i(residue >= (8<<3)), &s[10])
				}
			}
			s = res.stats[TOKEN_ID(res.coeff_type, int(VP8EncBands[n]), 2):]
		}
		if n == 16 || VP8RecordStats(b2i(n <= res.last), &s[0]) == 0 {
			return 1 // EOB
		}
	}
	return 1
}

//------------------------------------------------------------------------------
// Main loops
//

func PreLoopInitialize(enc *VP8Encoder) error {
	for p := 0; p < enc.num_parts; p++ {
		vp8.VP8BitWriterSetLimit(&enc.parts[p], uint64(enc.config.MaxPartitionSize))
		if !vp8.VP8BitWriterInit(&enc.parts[p], uint64(enc.config.ExpectedPartitionSize)) {
			return fmt.Errorf("initializing partition #%d: %w", p, webp.VP8_ENC_ERROR_OUT_OF_MEMORY)
		}
	}
	return nil
}

// Finalize the partitions, check for extra errors.
func PostLoopFinalize(enc *VP8Encoder, p int) error {
	vp8.VP8BitWriterFinish(&enc.parts[p])
	if vp8.VP8BitWriterError(&enc.parts[p]) {
		return fmt.Errorf("partition #%d: %w", p, webp.VP8_ENC_ERROR_BITSTREAM_OUT_OF_MEMORY)
	}
	return nil
}

// VP8EncStatLoop collects the statistics of every recorded token and, when
// probability updates are enabled, refines the coding probabilities.
// Recording errors surface here.
func VP8EncStatLoop(enc *VP8Encoder) error {
	var proba *VP8EncProba = &enc.proba
	for p := 0; p < enc.num_parts; p++ {
		if VP8TBufferError(&enc.tokens[p]) {
			return fmt.Errorf("recording partition #%d: %w", p, webp.VP8_ENC_ERROR_OUT_OF_MEMORY)
		}
	}

	ResetTokenStats(enc)
	enc.token_mem = 0
	for p := 0; p < enc.num_parts; p++ {
		VP8AccumulateTokenStats(&enc.tokens[p], proba.stats[:])
		enc.token_count[p] = VP8TBufferSize(&enc.tokens[p])
		enc.token_mem += VP8TBufferMemory(&enc.tokens[p])
	}

	enc.header_bits[1] = 0
	if enc.config.ProbaUpdate {
		enc.header_bits[1] = uint64(FinalizeTokenProbas(proba))
	} else {
		proba.coeffs = proba.base
		proba.dirty = false
		proba.nb_updates = 0
	}

	enc.token_bits = 0
	for p := 0; p < enc.num_parts; p++ {
		enc.token_bits += VP8EstimateTokenSize(&enc.tokens[p], proba.coeffs[:])
	}
	return nil
}

// VP8EncTokenLoop replays every token partition through the final
// probabilities. Partitions are independent and are emitted concurrently
// when config.ThreadLevel > 0, at most ThreadLevel at a time.
func VP8EncTokenLoop(enc *VP8Encoder) error {
	if err := PreLoopInitialize(enc); err != nil {
		return err
	}

	probas := enc.proba.coeffs[:]
	final_pass := enc.config.LowMemory
	emit := func(p int) error {
		if !VP8EmitTokens(&enc.tokens[p], &enc.parts[p], probas, final_pass) {
			return fmt.Errorf("emitting partition #%d: %w", p, webp.VP8_ENC_ERROR_OUT_OF_MEMORY)
		}
		return PostLoopFinalize(enc, p)
	}

	if enc.config.ThreadLevel == 0 {
		for p := 0; p < enc.num_parts; p++ {
			if err := emit(p); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(enc.config.ThreadLevel)
	for p := 0; p < enc.num_parts; p++ {
		p := p
		g.Go(func() error { return emit(p) })
	}
	return g.Wait()
}
