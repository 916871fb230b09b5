// Copyright 2012 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package endian

import (
	"github.com/daanv2/go-vp8enc/pkg/assert"
)

// Read 16 or 24 bits stored in little-endian order.
func GetLE16( /* const */ data []uint8 /* (2) */) uint32 {
	return uint32(data[0])<<0 | uint32(data[1])<<8
}

func GetLE24( /* const */ data []uint8 /* (3) */) uint32 {
	return GetLE16(data) | uint32(data[2])<<16
}

// Store 16 or 24 bits in little-endian order.
func PutLE16( /* const */ data []uint8 /* (2) */, val uint32) {
	assert.Assert(val < (1 << 16))
	data[0] = uint8(val>>0) & 0xff
	data[1] = uint8(val>>8) & 0xff
}

func PutLE24( /* const */ data []uint8 /* (3) */, val uint32) {
	assert.Assert(val < (1 << 24))
	PutLE16(data, val&0xffff)
	data[2] = uint8(val>>16) & 0xff
}
