// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
package enc

import (
	"fmt"

	"github.com/daanv2/go-vp8enc/pkg/config"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

// Return the encoder's version number, packed in hexadecimal using 8bits for
// each of major/minor/revision. E.g: v2.5.7 is 0x020507.
func WebPGetEncoderVersion() int {
	return (ENC_MAJ_VERSION << 16) | (ENC_MIN_VERSION << 8) | ENC_REV_VERSION
}

func ResetSegmentHeader(enc *VP8Encoder, frame *webp.VP8FrameHeader) {
	var hdr *VP8EncSegmentHeader = &enc.segment_hdr
	hdr.num_segments = frame.Segments
	hdr.update_map = frame.UpdateMap && hdr.num_segments > 1
	hdr.quant = frame.SegmentQuant
	hdr.fstrength = frame.SegmentFilter
	enc.proba.segments = frame.SegmentProbas
}

func ResetFilterHeader(enc *VP8Encoder, frame *webp.VP8FrameHeader) {
	var hdr *VP8EncFilterHeader = &enc.filter_hdr
	hdr.simple = frame.FilterSimple
	hdr.level = frame.FilterLevel
	hdr.sharpness = frame.Sharpness
	hdr.i4x4_lf_delta = frame.I4x4LfDelta
}

func ResetQuant(enc *VP8Encoder, frame *webp.VP8FrameHeader) {
	enc.base_quant = frame.BaseQuant
	enc.dq_y1_dc = frame.DqY1DC
	enc.dq_y2_dc = frame.DqY2DC
	enc.dq_y2_ac = frame.DqY2AC
	enc.dq_uv_dc = frame.DqUVDC
	enc.dq_uv_ac = frame.DqUVAC
}

// Every token partition holds its recorded tokens (2 bytes each, by pages
// of config.TokenPageSize) until it is emitted, plus its coded bytes
// (bounded by config.MaxPartitionSize).
func InitVP8Encoder(config *config.Config, frame *webp.VP8FrameHeader) (*VP8Encoder, error) {
	if config == nil || frame == nil {
		return nil, webp.VP8_ENC_ERROR_nil_PARAMETER
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_INVALID_CONFIGURATION, err)
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_INVALID_CONFIGURATION, err)
	}

	enc := &VP8Encoder{}
	enc.config = config
	enc.num_parts = config.NumPartitions()
	enc.profile = frame.Profile

	VP8DefaultProbas(enc)
	VP8SetCoeffsModel(&enc.proba, frame.CoeffsBase, frame.CoeffsUpdate)
	enc.proba.use_skip_proba = frame.UseSkipProba
	enc.proba.skip_proba = frame.SkipProba
	ResetSegmentHeader(enc, frame)
	ResetFilterHeader(enc, frame)
	ResetQuant(enc, frame)

	for p := 0; p < enc.num_parts; p++ {
		VP8TBufferInit(&enc.tokens[p], config.TokenPageSize)
		VP8TBufferSetLimit(&enc.tokens[p], config.MaxTokenPages)
	}
	return enc, nil
}

// VP8EncRecordBlock records the tokens of one block in its partition.
// Returns whether the block has a non-zero coefficient, which is the
// context bit of the neighbouring blocks.
func VP8EncRecordBlock(enc *VP8Encoder, blk *webp.VP8Block) (bool, error) {
	if blk == nil {
		return false, webp.VP8_ENC_ERROR_nil_PARAMETER
	}
	if err := blk.Validate(enc.num_parts); err != nil {
		return false, err
	}
	var res VP8Residual
	VP8InitResidual(blk.First, blk.Type, &enc.proba, &res)
	VP8SetResidualCoeffs(blk.Coeffs[:], &res)
	VP8RecordCoeffTokens(blk.Ctx, &res, &enc.tokens[blk.Partition])
	enc.block_count[blk.Partition]++
	return res.last >= 0, nil
}

func DeleteVP8Encoder(enc *VP8Encoder) {
	if enc != nil {
		for p := range enc.tokens {
			VP8TBufferClear(&enc.tokens[p])
		}
		VP8EncFreeBitWriters(enc)
	}
}

func StoreStats(enc *VP8Encoder) {
	var stats *webp.AuxStats = enc.stats
	if stats == nil {
		return
	}
	stats.CodedSize = enc.coded_size
	stats.HeaderBytes[0] = int((enc.header_bits[0] + 7) >> 3)
	stats.HeaderBytes[1] = int((enc.header_bits[1] + 7) >> 3)
	stats.PartitionBytes = make([]int, enc.num_parts)
	stats.TokenCount = make([]int, enc.num_parts)
	for p := 0; p < enc.num_parts; p++ {
		stats.PartitionBytes[p] = int(vp8.VP8BitWriterSize(&enc.parts[p]))
		stats.TokenCount[p] = enc.token_count[p]
	}
	stats.TokenMemory = enc.token_mem
	stats.EstimatedTokenBits = enc.token_bits
	stats.ProbaUpdates = enc.proba.nb_updates
}

// VP8EncTokenStats returns a copy of the packed statistics gathered by
// VP8EncStatLoop, one entry per probability slot.
func VP8EncTokenStats(enc *VP8Encoder) []uint32 {
	out := make([]uint32, len(enc.proba.stats))
	for i, s := range enc.proba.stats {
		out[i] = uint32(s)
	}
	return out
}

// VP8EncCodingProbas returns a copy of the probabilities used for coding.
func VP8EncCodingProbas(enc *VP8Encoder) []uint8 {
	return append([]uint8(nil), enc.proba.coeffs[:]...)
}
