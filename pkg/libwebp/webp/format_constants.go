package webp

// Copyright 2012 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
//  Constants related to the VP8 partition layout.

const (
	VP8_MAX_PARTITION0_SIZE = (1 << 19) // max size of mode partition
	VP8_MAX_PARTITION_SIZE  = (1 << 24) // max size for token partition

	// size of one entry of the partition size table
	VP8_PARTITION_SIZE_BYTES = 3

	VP8_FRAME_TAG_SIZE = 3 // keyframe bit, profile, show flag, partition #0 size

	MAX_NUM_PARTITIONS = 8
	NUM_MB_SEGMENTS    = 4

	// number of coefficient probabilities: types x bands x contexts x probas
	NUM_PROBA_SLOTS = 4 * 8 * 3 * 11
)
