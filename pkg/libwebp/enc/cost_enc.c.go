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
// Cost tables
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"github.com/daanv2/go-vp8enc/pkg/stdlib"
)

// VP8EntropyCost[i] = round(-log2(i / 256) * 256), in 1/256 bit units.
// Entry 0 is clamped to the cost of entry 1.
var VP8EntropyCost = [256]uint16{
	2048, 2048, 1792, 1642, 1536, 1454, 1386, 1329, 1280, 1236, 1198, 1162, 1130, 1101, 1073, 1048,
	1024, 1002, 980, 961, 942, 924, 906, 890, 874, 859, 845, 831, 817, 804, 792, 780,
	768, 757, 746, 735, 724, 714, 705, 695, 686, 676, 668, 659, 650, 642, 634, 626,
	618, 611, 603, 596, 589, 582, 575, 568, 561, 555, 548, 542, 536, 530, 524, 518,
	512, 506, 501, 495, 490, 484, 479, 474, 468, 463, 458, 453, 449, 444, 439, 434,
	430, 425, 420, 416, 412, 407, 403, 399, 394, 390, 386, 382, 378, 374, 370, 366,
	362, 358, 355, 351, 347, 343, 340, 336, 333, 329, 326, 322, 319, 315, 312, 309,
	305, 302, 299, 296, 292, 289, 286, 283, 280, 277, 274, 271, 268, 265, 262, 259,
	256, 253, 250, 247, 245, 242, 239, 236, 234, 231, 228, 226, 223, 220, 218, 215,
	212, 210, 207, 205, 202, 200, 197, 195, 193, 190, 188, 185, 183, 181, 178, 176,
	174, 171, 169, 167, 164, 162, 160, 158, 156, 153, 151, 149, 147, 145, 143, 140,
	138, 136, 134, 132, 130, 128, 126, 124, 122, 120, 118, 116, 114, 112, 110, 108,
	106, 104, 102, 101, 99, 97, 95, 93, 91, 89, 87, 86, 84, 82, 80, 78,
	77, 75, 73, 71, 70, 68, 66, 64, 63, 61, 59, 58, 56, 54, 53, 51,
	49, 48, 46, 44, 43, 41, 40, 38, 36, 35, 33, 32, 30, 28, 27, 25,
	24, 22, 21, 19, 18, 16, 15, 13, 12, 10, 9, 7, 6, 4, 3, 1,
}

//------------------------------------------------------------------------------
// Residual cost

// Cost of coding one level that went past the 'v > 1' decision, constant
// probability bits included. The sign is not.
func LevelCost(v int, p []uint8) int {
	cost := 0
	if v <= 4 {
		cost += VP8BitCost(0, p[3]) + VP8BitCost(b2i(v != 2), p[4])
		if v != 2 {
			cost += VP8BitCost(b2i(v == 4), p[5])
		}
		return cost
	}
	cost += VP8BitCost(1, p[3])
	if v <= 10 {
		cost += VP8BitCost(0, p[6])
		if v <= 6 {
			return cost + VP8BitCost(0, p[7]) + VP8BitCost(b2i(v == 6), 159)
		}
		return cost + VP8BitCost(1, p[7]) + VP8BitCost(b2i(v >= 9), 165) + VP8BitCost(b2i(v&1 == 0), 145)
	}
	cost += VP8BitCost(1, p[6])
	var tab []uint8
	residue := v - 3
	switch {
	case residue < (8 << 1):
		cost += VP8BitCost(0, p[8]) + VP8BitCost(0, p[9])
		residue -= 8 << 0
		tab = VP8Cat3
	case residue < (8 << 2):
		cost += VP8BitCost(0, p[8]) + VP8BitCost(1, p[9])
		residue -= 8 << 1
		tab = VP8Cat4
	case residue < (8 << 3):
		cost += VP8BitCost(1, p[8]) + VP8BitCost(0, p[10])
		residue -= 8 << 2
		tab = VP8Cat5
	default:
		cost += VP8BitCost(1, p[8]) + VP8BitCost(1, p[10])
		residue -= 8 << 3
		tab = VP8Cat6
	}
	for i, proba := range tab {
		bit := (residue >> (len(tab) - 1 - i)) & 1
		cost += VP8BitCost(bit, proba)
	}
	return cost
}

// Returns the cost of coding 'res' with its current probabilities, in
// 1/256 bit units. This is what PutCoeffs() would spend.
func VP8GetResidualCost(ctx0 int, res *VP8Residual) int {
	n := res.first
	// should be prob[VP8EncBands[n]], but it's equivalent for n=0 or 1
	p := res.prob[TOKEN_ID(res.coeff_type, n, ctx0):]
	if res.last < 0 {
		return VP8BitCost(0, p[0])
	}
	cost := VP8BitCost(1, p[0])
	for ; n <= res.last; n++ {
		v := stdlib.Abs(int(res.coeffs[n]))
		if v == 0 {
			cost += VP8BitCost(0, p[1])
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n+1]), 0):]
			continue
		}
		cost += VP8BitCost(1, p[1]) + VP8BitCost(b2i(res.coeffs[n] < 0), 128)
		if v == 1 {
			cost += VP8BitCost(0, p[2])
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n+1]), 1):]
		} else {
			cost += VP8BitCost(1, p[2]) + LevelCost(v, p)
			p = res.prob[TOKEN_ID(res.coeff_type, int(VP8EncBands[n+1]), 2):]
		}
		if n < 15 {
			cost += VP8BitCost(b2i(n < res.last), p[0])
		}
	}
	return cost
}
