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
// Cost tables for coefficient coding.
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"github.com/daanv2/go-vp8enc/pkg/assert"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

// On-the-fly info about the current set of residuals. Handy to avoid
// passing zillions of params.
type VP8Residual struct {
	first  int
	last   int
	coeffs []int16

	coeff_type int
	prob       []uint8   // flat probability table, see TOKEN_ID()
	stats      []proba_t // flat statistics table, see TOKEN_ID()
}

// slot of the first probability of (type, band, ctx)
func TOKEN_ID(t, b, ctx int) int {
	return vp8.NUM_PROBAS * (ctx + vp8.NUM_CTX*(b+vp8.NUM_BANDS*t))
}

func VP8InitResidual(first int, coeff_type int, proba *VP8EncProba, res *VP8Residual) {
	res.coeff_type = coeff_type
	res.prob = proba.coeffs[:]
	res.stats = proba.stats[:]
	res.first = first
}

// Sets the coefficients and computes the position of the last non-zero
// one (-1 if none).
func VP8SetResidualCoeffs(coeffs []int16, res *VP8Residual) {
	assert.Assert(len(coeffs) >= 16)
	res.last = -1
	for n := 15; n >= res.first; n-- {
		if coeffs[n] != 0 {
			res.last = n
			break
		}
	}
	res.coeffs = coeffs
}

// Record proba context used.
func VP8RecordStats(bit int, stats *proba_t) int {
	p := *stats
	// An overflow is inbound. Halve the total count (upper 16 bits) and the
	// bit count (lower 16 bits) separately so that neither half can carry
	// into the other. A saturated total rounds up to 0x8000.
	if p >= 0xffff0000 {
		total := ((p >> 16) + 1) >> 1
		nb := ((p & 0xffff) + 1) >> 1
		p = total<<16 | nb
	}
	// record bit count (lower 16 bits) and increment total count (upper 16 bits).
	p += 0x00010000 + proba_t(bit)
	*stats = p
	return bit
}

// Cost of coding one event with probability 'proba'.
func VP8BitCost(bit int, proba uint8) int {
	if bit == 0 {
		return int(VP8EntropyCost[proba])
	}
	return int(VP8EntropyCost[255-proba])
}
