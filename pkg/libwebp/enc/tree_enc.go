// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package enc

import (
	"github.com/daanv2/go-vp8enc/pkg/stdlib"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

const (
	// probability every slot starts from when the caller supplies no model
	DEFAULT_COEFF_PROBA = 128
	// probability of a slot not being updated, when the caller supplies
	// no model. Updates are then expensive to signal and only happen for
	// heavily skewed slots.
	DEFAULT_UPDATE_PROBA = 255
)

// Reset the token probabilities to their initial (default) values
func VP8DefaultProbas(enc *VP8Encoder) {
	var probas *VP8EncProba = &enc.proba
	probas.use_skip_proba = false
	stdlib.Memset(probas.segments[:], 255)
	stdlib.Memset(probas.base[:], DEFAULT_COEFF_PROBA)
	stdlib.Memset(probas.update[:], DEFAULT_UPDATE_PROBA)
	probas.coeffs = probas.base
	probas.dirty = false
	probas.nb_updates = 0
}

// Installs a caller-supplied probability model. nil tables keep the
// current values.
func VP8SetCoeffsModel(probas *VP8EncProba, base []uint8, update []uint8) {
	if base != nil {
		copy(probas.base[:], base)
	}
	if update != nil {
		copy(probas.update[:], update)
	}
	probas.coeffs = probas.base
	probas.dirty = false
}

// Write the token probabilities
func VP8WriteProbas(bw *vp8.VP8BitWriter, probas *VP8EncProba) {
	for i := 0; i < vp8.NUM_PROBA_SLOTS; i++ {
		p0 := probas.coeffs[i]
		update := p0 != probas.base[i]
		if vp8.VP8PutBit(bw, b2i(update), int(probas.update[i])) != 0 {
			vp8.VP8PutBits(bw, uint32(p0), 8)
		}
	}
	if vp8.VP8PutBitUniform(bw, b2i(probas.use_skip_proba)) != 0 {
		vp8.VP8PutBits(bw, uint32(probas.skip_proba), 8)
	}
}
