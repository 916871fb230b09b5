package vp8test

const (
	numBands  = 8
	numCtx    = 3
	numProbas = 11
)

var (
	kCat3    = []uint8{173, 148, 140}
	kCat4    = []uint8{176, 155, 140, 135}
	kCat5    = []uint8{180, 157, 141, 134, 130}
	kCat6    = []uint8{254, 254, 243, 230, 196, 177, 153, 140, 133, 130, 129}
	kCat3456 = [][]uint8{kCat3, kCat4, kCat5, kCat6}

	kBands = [16 + 1]uint8{0, 1, 2, 3, 6, 4, 5, 6, 6, 6, 6, 6, 6, 6, 6, 7, 0}
)

// probasAt returns the probabilities of (coeff_type, band, ctx) inside the
// flat table 'probas'.
func probasAt(probas []uint8, coeff_type int, band uint8, ctx int) []uint8 {
	base := numProbas * (ctx + numCtx*(int(band)+numBands*coeff_type))
	return probas[base : base+numProbas]
}

// See section 13-2: https://datatracker.ietf.org/doc/html/rfc6386#section-13.2
func GetLargeValue(br *VP8BitReader, p []uint8) int {
	var v int
	if VP8GetBit(br, int(p[3])) == 0 {
		if VP8GetBit(br, int(p[4])) == 0 {
			v = 2
		} else {
			v = 3 + VP8GetBit(br, int(p[5]))
		}
	} else {
		if VP8GetBit(br, int(p[6])) == 0 {
			if VP8GetBit(br, int(p[7])) == 0 {
				v = 5 + VP8GetBit(br, 159)
			} else {
				v = 7 + 2*VP8GetBit(br, 165)
				v += VP8GetBit(br, 145)
			}
		} else {
			bit1 := VP8GetBit(br, int(p[8]))
			bit0 := VP8GetBit(br, int(p[9+bit1]))
			cat := 2*bit1 + bit0
			v = 0
			for _, prob := range kCat3456[cat] {
				v += v + VP8GetBit(br, int(prob))
			}
			v += 3 + (8 << cat)
		}
	}
	return v
}

// GetCoeffs decodes one block of coefficients, in coding order, starting
// at position 'n'. 'probas' is the flat table of every probability slot.
// Returns the position of the last non-zero coeff plus one.
func GetCoeffs(br *VP8BitReader, probas []uint8, coeff_type int, ctx int, n int, out *[16]int16) int {
	p := probasAt(probas, coeff_type, kBands[n], ctx)
	for ; n < 16; n++ {
		if VP8GetBit(br, int(p[0])) == 0 {
			return n // previous coeff was last non-zero coeff
		}
		for VP8GetBit(br, int(p[1])) == 0 { // sequence of zero coeffs
			n++
			if n == 16 {
				return 16
			}
			p = probasAt(probas, coeff_type, kBands[n], 0)
		}
		var v int
		if VP8GetBit(br, int(p[2])) == 0 {
			v = 1
			p = probasAt(probas, coeff_type, kBands[n+1], 1)
		} else {
			v = GetLargeValue(br, p)
			p = probasAt(probas, coeff_type, kBands[n+1], 2)
		}
		if VP8Get(br) != 0 {
			v = -v
		}
		out[n] = int16(v)
	}
	return 16
}
