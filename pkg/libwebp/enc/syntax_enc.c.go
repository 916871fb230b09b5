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
// Header syntax writing
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"fmt"
	"io"

	"github.com/daanv2/go-vp8enc/pkg/libwebp/endian"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

//------------------------------------------------------------------------------
// Writers for header's various pieces (in order of appearance)

// Paragraph 9.1: keyframe bit, profile, show flag and partition #0 size.
func PutVP8FrameTag(w io.Writer, profile int, size0 uint64) error {
	var tag [webp.VP8_FRAME_TAG_SIZE]uint8

	if size0 >= webp.VP8_MAX_PARTITION0_SIZE { // partition #0 is too big to fit
		return webp.VP8_ENC_ERROR_PARTITION0_OVERFLOW
	}
	bits := uint32(0) | // keyframe (1b)
		uint32(profile)<<1 | // profile (3b)
		1<<4 | // visible (1b)
		uint32(size0)<<5 // partition length (19b)
	endian.PutLE24(tag[:], bits)
	if _, err := w.Write(tag[:]); err != nil {
		return fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_BAD_WRITE, err)
	}
	return nil
}

// Segmentation header
func PutSegmentHeader(bw *vp8.VP8BitWriter, enc *VP8Encoder) {
	var hdr *VP8EncSegmentHeader = &enc.segment_hdr
	var proba *VP8EncProba = &enc.proba
	if vp8.VP8PutBitUniform(bw, b2i(hdr.num_segments > 1)) != 0 {
		// We always 'update' the quant and filter strength values
		update_data := 1
		vp8.VP8PutBitUniform(bw, b2i(hdr.update_map))
		if vp8.VP8PutBitUniform(bw, update_data) != 0 {
			// we always use absolute values, not relative ones
			vp8.VP8PutBitUniform(bw, 1) // (segment_feature_mode = 1. Paragraph 9.3.)
			for s := 0; s < vp8.NUM_MB_SEGMENTS; s++ {
				vp8.VP8PutSignedBits(bw, hdr.quant[s], 7)
			}
			for s := 0; s < vp8.NUM_MB_SEGMENTS; s++ {
				vp8.VP8PutSignedBits(bw, hdr.fstrength[s], 6)
			}
		}
		if hdr.update_map {
			for s := 0; s < 3; s++ {
				if vp8.VP8PutBitUniform(bw, b2i(proba.segments[s] != 255)) != 0 {
					vp8.VP8PutBits(bw, uint32(proba.segments[s]), 8)
				}
			}
		}
	}
}

// Filtering parameters header
func PutFilterHeader(bw *vp8.VP8BitWriter, hdr *VP8EncFilterHeader) {
	use_lf_delta := hdr.i4x4_lf_delta != 0
	vp8.VP8PutBitUniform(bw, b2i(hdr.simple))
	vp8.VP8PutBits(bw, uint32(hdr.level), 6)
	vp8.VP8PutBits(bw, uint32(hdr.sharpness), 3)
	if vp8.VP8PutBitUniform(bw, b2i(use_lf_delta)) != 0 {
		// '0' is the default value for i4x4_lf_delta at frame #0.
		need_update := hdr.i4x4_lf_delta != 0
		if vp8.VP8PutBitUniform(bw, b2i(need_update)) != 0 {
			// we don't use ref_lf_delta => emit four 0 bits
			vp8.VP8PutBits(bw, 0, 4)
			// we use mode_lf_delta for i4x4
			vp8.VP8PutSignedBits(bw, hdr.i4x4_lf_delta, 6)
			vp8.VP8PutBits(bw, 0, 3) // all others unused
		}
	}
}

// Nominal quantization parameters
func PutQuant(bw *vp8.VP8BitWriter, enc *VP8Encoder) {
	vp8.VP8PutBits(bw, uint32(enc.base_quant), 7)
	vp8.VP8PutSignedBits(bw, enc.dq_y1_dc, 4)
	vp8.VP8PutSignedBits(bw, enc.dq_y2_dc, 4)
	vp8.VP8PutSignedBits(bw, enc.dq_y2_ac, 4)
	vp8.VP8PutSignedBits(bw, enc.dq_uv_dc, 4)
	vp8.VP8PutSignedBits(bw, enc.dq_uv_ac, 4)
}

// log2 of the number of partitions, as coded in the header.
func PartitionsLog2(num_parts int) uint32 {
	switch num_parts {
	case 8:
		return 3
	case 4:
		return 2
	case 2:
		return 1
	}
	return 0
}

// Partition sizes
func EmitPartitionsSize(enc *VP8Encoder, w io.Writer) error {
	var buf [webp.VP8_PARTITION_SIZE_BYTES * (vp8.MAX_NUM_PARTITIONS - 1)]uint8
	var p int
	for p = 0; p < enc.num_parts-1; p++ {
		part_size := vp8.VP8BitWriterSize(&enc.parts[p])
		if err := PutPartitionSize(buf[webp.VP8_PARTITION_SIZE_BYTES*p:], part_size); err != nil {
			return fmt.Errorf("partition #%d: %w", p, err)
		}
	}
	if p > 0 {
		if _, err := w.Write(buf[:webp.VP8_PARTITION_SIZE_BYTES*p]); err != nil {
			return fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_BAD_WRITE, err)
		}
	}
	return nil
}

// Stores one entry of the partition size table.
func PutPartitionSize(dst []uint8, part_size uint64) error {
	if part_size >= webp.VP8_MAX_PARTITION_SIZE {
		return webp.VP8_ENC_ERROR_PARTITION_OVERFLOW
	}
	endian.PutLE24(dst, uint32(part_size))
	return nil
}

//------------------------------------------------------------------------------

func GeneratePartition0(enc *VP8Encoder) error {
	var bw *vp8.VP8BitWriter = &enc.bw
	var pos1, pos2, pos3 uint64

	// ~1k of header, most of it probability update flags
	if !vp8.VP8BitWriterInit(bw, vp8.NUM_PROBA_SLOTS) {
		return webp.VP8_ENC_ERROR_OUT_OF_MEMORY
	}
	pos1 = vp8.VP8BitWriterPos(bw)
	vp8.VP8PutBitUniform(bw, 0) // colorspace
	vp8.VP8PutBitUniform(bw, 0) // clamp type

	PutSegmentHeader(bw, enc)
	PutFilterHeader(bw, &enc.filter_hdr)
	vp8.VP8PutBits(bw, PartitionsLog2(enc.num_parts), 2)
	PutQuant(bw, enc)
	vp8.VP8PutBitUniform(bw, 0) // no proba update
	pos2 = vp8.VP8BitWriterPos(bw)
	VP8WriteProbas(bw, &enc.proba)
	vp8.VP8BitWriterFinish(bw)

	pos3 = vp8.VP8BitWriterPos(bw)
	enc.header_bits[0] = pos2 - pos1
	enc.header_bits[1] = pos3 - pos2

	if vp8.VP8BitWriterError(bw) {
		return webp.VP8_ENC_ERROR_BITSTREAM_OUT_OF_MEMORY
	}
	return nil
}

// Release memory allocated for bit-writing in VP8EncTokenLoop & co.
func VP8EncFreeBitWriters(enc *VP8Encoder) {
	vp8.VP8BitWriterWipeOut(&enc.bw)
	for p := 0; p < enc.num_parts; p++ {
		vp8.VP8BitWriterWipeOut(&enc.parts[p])
	}
}

// Generates the final bitstream by coding the partition0 and headers,
// and appending an assembly of all the pre-coded token partitions.
//
// Layout: frame tag (3 bytes), partition #0, partition size table
// (3 bytes per token partition but the last), token partitions.
func VP8EncWrite(enc *VP8Encoder, w io.Writer) error {
	var bw *vp8.VP8BitWriter = &enc.bw

	// Partition #0 with header and partition sizes
	if err := GeneratePartition0(enc); err != nil {
		return fmt.Errorf("partition #0: %w", err)
	}

	size0 := vp8.VP8BitWriterSize(bw)
	vp8_size := webp.VP8_FRAME_TAG_SIZE + size0 + uint64(webp.VP8_PARTITION_SIZE_BYTES*(enc.num_parts-1))
	for p := 0; p < enc.num_parts; p++ {
		vp8_size += vp8.VP8BitWriterSize(&enc.parts[p])
	}

	// Emit headers and partition #0
	if err := PutVP8FrameTag(w, enc.profile, size0); err != nil {
		return err
	}
	if _, err := w.Write(vp8.VP8BitWriterBuf(bw)); err != nil {
		return fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_BAD_WRITE, err)
	}
	if err := EmitPartitionsSize(enc, w); err != nil {
		return err
	}
	vp8.VP8BitWriterWipeOut(bw) // will free the internal buffer.

	// Token partitions
	for p := 0; p < enc.num_parts; p++ {
		buf := vp8.VP8BitWriterBuf(&enc.parts[p])
		if len(buf) > 0 {
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("%w: %w", webp.VP8_ENC_ERROR_BAD_WRITE, err)
			}
		}
	}

	enc.coded_size = int(vp8_size)
	return nil
}
