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
//   VP8 token encoder: internal header.
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"github.com/daanv2/go-vp8enc/pkg/config"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

// version numbers
const (
	ENC_MAJ_VERSION = 1
	ENC_MIN_VERSION = 6
	ENC_REV_VERSION = 0
)

//------------------------------------------------------------------------------
// Headers

type proba_t uint32 // 16b + 16b

// segment features
type VP8EncSegmentHeader struct {
	num_segments int // Actual number of segments. 1 segment only = unused.
	// whether to update the segment map or not.
	// must be false if there's only 1 segment.
	update_map bool
	quant      [vp8.NUM_MB_SEGMENTS]int // final segment quantizers
	fstrength  [vp8.NUM_MB_SEGMENTS]int // final in-loop filtering strengths
}

// Struct collecting all frame-persistent probabilities.
// Coefficient tables are flat, indexed by TOKEN_ID() + proba index.
type VP8EncProba struct {
	segments       [vp8.MB_FEATURE_TREE_PROBS]uint8 // probabilities for segment tree
	skip_proba     uint8                            // final probability of being skipped.
	use_skip_proba bool

	base   [vp8.NUM_PROBA_SLOTS]uint8   // probabilities the decoder starts from
	update [vp8.NUM_PROBA_SLOTS]uint8   // probabilities of not updating a slot
	coeffs [vp8.NUM_PROBA_SLOTS]uint8   // probabilities used for coding
	stats  [vp8.NUM_PROBA_SLOTS]proba_t // 16b count + 16b bit-sum, per slot

	dirty      bool // true if 'coeffs' differs from 'base'
	nb_updates int  // number of slots sent in the header
}

// Filter parameters. Not actually used in the code (we don't perform
// the in-loop filtering), but filled from the frame header.
type VP8EncFilterHeader struct {
	simple        bool // filtering type: false=complex, true=simple
	level         int  // base filter level [0..63]
	sharpness     int  // [0..7]
	i4x4_lf_delta int  // delta filter level for i4x4 relative to i16x16
}

//------------------------------------------------------------------------------
// Paginated token buffer

type VP8TBuffer struct {
	pages     [][]VP8Token // recorded pages, oldest first
	left      int          // how many free tokens left before the page is full
	page_size int          // number of tokens per page
	max_pages int          // maximum number of pages, 0 if unbounded
	replayed  bool         // set once the tokens have been read back
	error     bool         // true in case of allocation error
}

//------------------------------------------------------------------------------
// VP8Encoder

type VP8Encoder struct {
	config *config.Config // user configuration and parameters

	// headers
	filter_hdr  VP8EncFilterHeader  // filtering information
	segment_hdr VP8EncSegmentHeader // segment information

	profile int // VP8's profile.

	// number of partitions (1, 2, 4 or 8 = MAX_NUM_PARTITIONS)
	num_parts int

	// per-partition boolean encoders.
	bw     vp8.VP8BitWriter                         // part0
	parts  [vp8.MAX_NUM_PARTITIONS]vp8.VP8BitWriter // token partitions
	tokens [vp8.MAX_NUM_PARTITIONS]VP8TBuffer       // token buffers

	// quantization info
	base_quant int // nominal quantizer value.
	// global offset of quantizers, shared by all segments
	dq_y1_dc int
	dq_y2_dc int
	dq_y2_ac int
	dq_uv_dc int
	dq_uv_ac int

	// probabilities and statistics
	proba       VP8EncProba
	coded_size  int
	block_count [vp8.MAX_NUM_PARTITIONS]int
	token_count [vp8.MAX_NUM_PARTITIONS]int
	token_mem   int       // bytes held by the token buffers after recording
	header_bits [2]uint64 // frame header and probability update bits
	token_bits  uint64    // estimated, 1/256 bit units

	stats *webp.AuxStats // optional, filled by StoreStats()
}
