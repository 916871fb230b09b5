package webp

// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
//   VP8 token encoder: main interface types
//

import (
	"errors"
)

// Coefficient types, as used to select a probability table.
const (
	TYPE_I16_AC = 0
	TYPE_I16_DC = 1
	TYPE_CHROMA = 2
	TYPE_I4_AC  = 3
)

// VP8Block is one block of quantized coefficients, in coding (zigzag) order.
type VP8Block struct {
	Partition int // index of the token partition the block goes to
	Type      int // one of the TYPE_* values
	// first coded position: 1 for TYPE_I16_AC (its DC goes in the
	// TYPE_I16_DC block), 0 otherwise
	First int
	// number of neighbouring blocks (top, left) holding non-zero
	// coefficients, in [0..2]
	Ctx    int
	Coeffs [16]int16
}

// VP8FrameHeader holds the values written in partition #0 ahead of the
// token probabilities.
type VP8FrameHeader struct {
	Profile int // [0..3]

	Segments      int  // number of segments, in [1..4]
	UpdateMap     bool // whether the segment map probabilities are sent
	SegmentQuant  [NUM_MB_SEGMENTS]int
	SegmentFilter [NUM_MB_SEGMENTS]int
	SegmentProbas [3]uint8

	FilterSimple bool
	FilterLevel  int // [0..63]
	Sharpness    int // [0..7]
	I4x4LfDelta  int // delta filter level for i4x4 relative to i16x16

	BaseQuant int // [0..127]
	// quantizer deltas, in [-15..15]
	DqY1DC, DqY2DC, DqY2AC, DqUVDC, DqUVAC int

	UseSkipProba bool
	SkipProba    uint8

	// Coefficient probability model, one entry per probability slot
	// (NUM_PROBA_SLOTS). CoeffsBase holds the probabilities the decoder
	// starts from, CoeffsUpdate the probabilities of a slot NOT being
	// updated. nil selects the encoder defaults.
	CoeffsBase   []uint8
	CoeffsUpdate []uint8
}

// Init resets the header to a single segment keyframe with default
// probabilities and no filtering.
func (hdr *VP8FrameHeader) Init() {
	*hdr = VP8FrameHeader{}
	hdr.Segments = 1
	hdr.SegmentProbas = [3]uint8{255, 255, 255}
}

// Returns an error if one of the header values can't be represented
// in the bitstream.
func (hdr *VP8FrameHeader) Validate() error {
	if hdr == nil {
		return errors.New("frame header is nil")
	}
	if hdr.Profile < 0 || hdr.Profile > 3 {
		return errors.New("profile must be between 0 and 3")
	}
	if hdr.Segments < 1 || hdr.Segments > NUM_MB_SEGMENTS {
		return errors.New("segments must be between 1 and 4")
	}
	if hdr.UpdateMap && hdr.Segments == 1 {
		return errors.New("update_map requires more than one segment")
	}
	for s := 0; s < NUM_MB_SEGMENTS; s++ {
		if hdr.SegmentQuant[s] < -127 || hdr.SegmentQuant[s] > 127 {
			return errors.New("segment quant must be between -127 and 127")
		}
		if hdr.SegmentFilter[s] < -63 || hdr.SegmentFilter[s] > 63 {
			return errors.New("segment filter strength must be between -63 and 63")
		}
	}
	if hdr.FilterLevel < 0 || hdr.FilterLevel > 63 {
		return errors.New("filter_level must be between 0 and 63")
	}
	if hdr.Sharpness < 0 || hdr.Sharpness > 7 {
		return errors.New("sharpness must be between 0 and 7")
	}
	if hdr.I4x4LfDelta < -63 || hdr.I4x4LfDelta > 63 {
		return errors.New("i4x4_lf_delta must be between -63 and 63")
	}
	if hdr.BaseQuant < 0 || hdr.BaseQuant > 127 {
		return errors.New("base_quant must be between 0 and 127")
	}
	for _, dq := range []int{hdr.DqY1DC, hdr.DqY2DC, hdr.DqY2AC, hdr.DqUVDC, hdr.DqUVAC} {
		if dq < -15 || dq > 15 {
			return errors.New("quantizer deltas must be between -15 and 15")
		}
	}
	if hdr.CoeffsBase != nil && len(hdr.CoeffsBase) != NUM_PROBA_SLOTS {
		return errors.New("coeffs_base must hold one probability per slot")
	}
	if hdr.CoeffsUpdate != nil && len(hdr.CoeffsUpdate) != NUM_PROBA_SLOTS {
		return errors.New("coeffs_update must hold one probability per slot")
	}
	return nil
}

// Validate returns an error if the block can't be coded.
func (blk *VP8Block) Validate(num_parts int) error {
	if blk.Partition < 0 || blk.Partition >= num_parts {
		return errors.New("partition index out of range")
	}
	if blk.Type < TYPE_I16_AC || blk.Type > TYPE_I4_AC {
		return errors.New("coefficient type must be between 0 and 3")
	}
	if blk.First < 0 || blk.First > 1 {
		return errors.New("first coded position must be 0 or 1")
	}
	if blk.Ctx < 0 || blk.Ctx > 2 {
		return errors.New("context must be between 0 and 2")
	}
	for n := blk.First; n < 16; n++ {
		c := int(blk.Coeffs[n])
		if c > MAX_CODED_LEVEL || c < -MAX_CODED_LEVEL {
			return errors.New("coefficient magnitude is too large")
		}
	}
	return nil
}

// largest magnitude the coefficient tree can represent (2047 + 67)
const MAX_CODED_LEVEL = 2047 + 67
