package enc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
	"github.com/daanv2/go-vp8enc/pkg/vp8/vp8test"
)

func newTestProba(t *testing.T) *VP8EncProba {
	t.Helper()

	var enc VP8Encoder
	VP8DefaultProbas(&enc)
	return &enc.proba
}

func randomProbas(rng *rand.Rand) []uint8 {
	probas := make([]uint8, vp8.NUM_PROBA_SLOTS)
	for i := range probas {
		probas[i] = uint8(1 + rng.Intn(255))
	}
	return probas
}

func randomLevel(rng *rand.Rand) int16 {
	var v int
	switch r := rng.Intn(100); {
	case r < 55:
		v = 0
	case r < 80:
		v = 1 + rng.Intn(4)
	case r < 92:
		v = 5 + rng.Intn(62)
	default:
		v = 67 + rng.Intn(webp.MAX_CODED_LEVEL-66)
	}
	if rng.Intn(2) == 0 {
		v = -v
	}
	return int16(v)
}

func randomBlock(rng *rand.Rand, num_parts int) webp.VP8Block {
	blk := webp.VP8Block{
		Partition: rng.Intn(num_parts),
		Type:      rng.Intn(4),
		Ctx:       rng.Intn(3),
	}
	if blk.Type == webp.TYPE_I16_AC {
		blk.First = 1
	}
	last := rng.Intn(17) // 0: empty block
	for n := blk.First; n < last; n++ {
		blk.Coeffs[n] = randomLevel(rng)
	}
	return blk
}

func residualOf(blk *webp.VP8Block, proba *VP8EncProba) *VP8Residual {
	var res VP8Residual
	VP8InitResidual(blk.First, blk.Type, proba, &res)
	VP8SetResidualCoeffs(blk.Coeffs[:], &res)
	return &res
}

func collectTokens(b *VP8TBuffer) []VP8Token {
	var tokens []VP8Token
	VP8TBufferForEach(b, func(token VP8Token) {
		tokens = append(tokens, token)
	})
	return tokens
}

func TestEmptyBlockRecordsSingleToken(t *testing.T) {
	proba := newTestProba(t)
	blk := webp.VP8Block{Type: webp.TYPE_I4_AC, Ctx: 2}

	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	VP8RecordCoeffTokens(blk.Ctx, residualOf(&blk, proba), &b)

	tokens := collectTokens(&b)
	require.Len(t, tokens, 1)
	require.False(t, tokens[0].IsConstant())
	require.Equal(t, 0, tokens[0].Bit())
	require.Equal(t, TOKEN_ID(webp.TYPE_I4_AC, 0, 2), tokens[0].Slot())
}

func TestSingleDCRecordsExpectedTokens(t *testing.T) {
	proba := newTestProba(t)
	blk := webp.VP8Block{Type: webp.TYPE_I16_DC, Ctx: 0}
	blk.Coeffs[0] = 5

	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	VP8RecordCoeffTokens(blk.Ctx, residualOf(&blk, proba), &b)

	base := TOKEN_ID(webp.TYPE_I16_DC, 0, 0)
	eob := TOKEN_ID(webp.TYPE_I16_DC, int(VP8EncBands[1]), 2)
	expected := []VP8Token{
		VP8Token(1<<15 | (base + 0)), // has non-zero
		VP8Token(1<<15 | (base + 1)), // non-zero
		VP8Token(1<<15 | (base + 2)), // > 1
		VP8Token(1<<15 | (base + 3)), // > 4
		VP8Token(0<<15 | (base + 6)), // <= 10
		VP8Token(0<<15 | (base + 7)), // <= 6
		VP8Token(0<<15 | int(FIXED_PROBA_BIT) | 159),
		VP8Token(0<<15 | int(FIXED_PROBA_BIT) | 128), // positive
		VP8Token(0<<15 | eob),
	}
	require.Equal(t, expected, collectTokens(&b))
	require.Equal(t, len(expected), VP8TBufferSize(&b))
}

func TestTrailingNonZeroSkipsEndOfBlock(t *testing.T) {
	proba := newTestProba(t)
	blk := webp.VP8Block{Type: webp.TYPE_I4_AC}
	blk.Coeffs[15] = -1

	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	VP8RecordCoeffTokens(blk.Ctx, residualOf(&blk, proba), &b)

	// has non-zero, 15 zeros, non-zero, magnitude 1, sign; no end of block.
	tokens := collectTokens(&b)
	require.Len(t, tokens, 1+15+1+1+1)
	last := tokens[len(tokens)-1]
	require.True(t, last.IsConstant())
	require.Equal(t, 1, last.Bit())
	require.Equal(t, uint8(128), last.Proba())
}

func TestMagnitudeCategories(t *testing.T) {
	// number of constant-probability tokens needed by each magnitude,
	// the sign included
	constants := map[int]int{
		1: 1, 2: 1, 3: 1, 4: 1,
		5: 2, 6: 2,
		7: 3, 8: 3, 9: 3, 10: 3,
		11: 4, 16: 4, 31: 5, 32: 5,
		2047: 12, 2048: 12,
	}
	rng := rand.New(rand.NewSource(5))
	probas := randomProbas(rng)

	for v := 0; v <= 2048; v++ {
		expected, ok := constants[v]
		if !ok && v != 0 {
			continue
		}
		for _, sign := range []int{1, -1} {
			proba := newTestProba(t)
			blk := webp.VP8Block{Type: webp.TYPE_CHROMA, Ctx: 1}
			blk.Coeffs[0] = int16(sign * v)
			blk.Coeffs[3] = 2
			res := residualOf(&blk, proba)

			var b VP8TBuffer
			VP8TBufferInit(&b, 0)
			VP8RecordCoeffTokens(blk.Ctx, res, &b)

			nb_constants := 0
			for _, token := range collectTokens(&b) {
				if token.IsConstant() {
					nb_constants++
				}
			}
			// the trailing 2 costs one sign token
			require.Equal(t, expected+1, nb_constants, "level %d", sign*v)

			var bw vp8.VP8BitWriter
			require.True(t, vp8.VP8BitWriterInit(&bw, 0))
			require.True(t, VP8EmitTokens(&b, &bw, probas, true))
			data := vp8.VP8BitWriterFinish(&bw)

			var out [16]int16
			br := vp8test.VP8InitBitReader(data)
			require.Equal(t, 4, vp8test.GetCoeffs(br, probas, blk.Type, blk.Ctx, 0, &out))
			require.Equal(t, blk.Coeffs, out, "level %d", sign*v)
		}
	}
}

func TestReplayMatchesDirectCoding(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	proba := newTestProba(t)
	copy(proba.coeffs[:], randomProbas(rng))

	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	var direct vp8.VP8BitWriter
	require.True(t, vp8.VP8BitWriterInit(&direct, 0))

	blocks := make([]webp.VP8Block, 3000)
	for i := range blocks {
		blocks[i] = randomBlock(rng, 1)
		res := residualOf(&blocks[i], proba)
		VP8RecordCoeffTokens(blocks[i].Ctx, res, &b)
		nz := PutCoeffs(&direct, blocks[i].Ctx, res)
		require.Equal(t, b2i(res.last >= 0), nz)
	}
	require.Greater(t, len(b.pages), 1)

	var replayed vp8.VP8BitWriter
	require.True(t, vp8.VP8BitWriterInit(&replayed, 0))
	require.True(t, VP8EmitTokens(&b, &replayed, proba.coeffs[:], false))

	expected := vp8.VP8BitWriterFinish(&direct)
	require.Equal(t, expected, vp8.VP8BitWriterFinish(&replayed))

	// a second replay is identical
	var again vp8.VP8BitWriter
	require.True(t, vp8.VP8BitWriterInit(&again, 0))
	require.True(t, VP8EmitTokens(&b, &again, proba.coeffs[:], true))
	require.Equal(t, expected, vp8.VP8BitWriterFinish(&again))
	require.Zero(t, VP8TBufferSize(&b))

	br := vp8test.VP8InitBitReader(expected)
	for i := range blocks {
		var out [16]int16
		vp8test.GetCoeffs(br, proba.coeffs[:], blocks[i].Type, blocks[i].Ctx, blocks[i].First, &out)
		require.Equal(t, blocks[i].Coeffs, out, "block #%d", i)
	}
}

func TestStatsMatchDirectRecording(t *testing.T) {
	for name, start := range map[string]proba_t{
		"empty":     0,
		"saturated": 0xfffe0000 | 0x1234,
	} {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(23))
			proba := newTestProba(t)
			for i := range proba.stats {
				proba.stats[i] = start
			}

			var b VP8TBuffer
			VP8TBufferInit(&b, 0)
			for i := 0; i < 2000; i++ {
				blk := randomBlock(rng, 1)
				res := residualOf(&blk, proba)
				VP8RecordCoeffTokens(blk.Ctx, res, &b)
				VP8RecordCoeffs(blk.Ctx, res)
			}
			direct := append([]proba_t(nil), proba.stats[:]...)

			tokenized := make([]proba_t, vp8.NUM_PROBA_SLOTS)
			for i := range tokenized {
				tokenized[i] = start
			}
			VP8AccumulateTokenStats(&b, tokenized)
			require.Equal(t, direct, tokenized)

			// accumulating leaves the tokens untouched
			size := VP8TBufferSize(&b)
			VP8AccumulateTokenStats(&b, make([]proba_t, vp8.NUM_PROBA_SLOTS))
			require.Equal(t, size, VP8TBufferSize(&b))
		})
	}
}

func TestRecordStatsHalvesBeforeOverflow(t *testing.T) {
	p := proba_t(0xffff0000 | 10)
	require.Equal(t, 1, VP8RecordStats(1, &p))
	require.Equal(t, proba_t(0x8000<<16|5)+0x10001, p)

	p = 0xfffe0005
	VP8RecordStats(0, &p)
	require.Equal(t, proba_t(0xffff0005), p)
	VP8RecordStats(0, &p)
	require.Equal(t, proba_t(0x8000<<16|3)+0x10000, p)

	p = 0
	VP8RecordStats(0, &p)
	VP8RecordStats(1, &p)
	require.Equal(t, proba_t(2<<16|1), p)
}

func TestPagesReplayInRecordingOrder(t *testing.T) {
	var b VP8TBuffer
	VP8TBufferInit(&b, 100) // raised to the minimum
	require.Equal(t, MIN_PAGE_SIZE, b.page_size)

	const count = 2*MIN_PAGE_SIZE + 77
	expected := make([]VP8Token, 0, count)
	for i := 0; i < count; i++ {
		bit := (i / 3) & 1
		if i%5 == 0 {
			AddConstantToken(&b, bit, i%256)
			expected = append(expected, VP8Token(bit<<15|int(FIXED_PROBA_BIT)|i%256))
		} else {
			require.Equal(t, bit, AddToken(&b, bit, i%vp8.NUM_PROBA_SLOTS))
			expected = append(expected, VP8Token(bit<<15|i%vp8.NUM_PROBA_SLOTS))
		}
	}
	require.Len(t, b.pages, 3)
	require.Equal(t, count, VP8TBufferSize(&b))
	require.Equal(t, expected, collectTokens(&b))

	VP8TBufferClear(&b)
	require.Zero(t, VP8TBufferSize(&b))
	require.Nil(t, b.pages)
}

func TestRecordingAfterReplayPanics(t *testing.T) {
	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	AddToken(&b, 1, 0)
	VP8AccumulateTokenStats(&b, make([]proba_t, vp8.NUM_PROBA_SLOTS))

	require.Panics(t, func() { AddToken(&b, 1, 0) })
	require.Panics(t, func() { AddConstantToken(&b, 1, 128) })

	// clearing starts a new recording
	VP8TBufferClear(&b)
	require.NotPanics(t, func() { AddToken(&b, 1, 0) })
}

func TestAllocationFailureIsSticky(t *testing.T) {
	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	VP8TBufferSetLimit(&b, 1)

	for i := 0; i < MIN_PAGE_SIZE; i++ {
		AddToken(&b, i&1, 7)
	}
	require.False(t, VP8TBufferError(&b))

	// the bit value is still returned, so recording can go on
	require.Equal(t, 1, AddToken(&b, 1, 7))
	AddConstantToken(&b, 0, 200)
	require.True(t, VP8TBufferError(&b))
	require.Equal(t, MIN_PAGE_SIZE, VP8TBufferSize(&b))

	// later blocks are dropped without touching the recorded ones
	recorded := make([]VP8Token, len(b.pages[0]))
	copy(recorded, b.pages[0])
	rng := rand.New(rand.NewSource(11))
	proba := newTestProba(t)
	for n := 0; n < 50; n++ {
		blk := randomBlock(rng, 1)
		VP8RecordCoeffTokens(blk.Ctx, residualOf(&blk, proba), &b)
		require.True(t, VP8TBufferError(&b))
	}
	require.Len(t, b.pages, 1)
	require.Equal(t, recorded, b.pages[0])
	require.Equal(t, MIN_PAGE_SIZE, VP8TBufferSize(&b))

	// the recorded tokens are intact
	stats := make([]proba_t, vp8.NUM_PROBA_SLOTS)
	VP8AccumulateTokenStats(&b, stats)
	require.Equal(t, proba_t(MIN_PAGE_SIZE<<16|MIN_PAGE_SIZE/2), stats[7])

	var bw vp8.VP8BitWriter
	require.True(t, vp8.VP8BitWriterInit(&bw, 0))
	probas := make([]uint8, vp8.NUM_PROBA_SLOTS)
	require.False(t, VP8EmitTokens(&b, &bw, probas, true))
	require.Zero(t, vp8.VP8BitWriterPos(&bw))
	require.True(t, VP8TBufferError(&b))
}

func TestEmptyBufferEmitsNothing(t *testing.T) {
	var b VP8TBuffer
	VP8TBufferInit(&b, 0)

	var bw vp8.VP8BitWriter
	require.True(t, vp8.VP8BitWriterInit(&bw, 0))
	require.True(t, VP8EmitTokens(&b, &bw, make([]uint8, vp8.NUM_PROBA_SLOTS), true))
	require.Zero(t, vp8.VP8BitWriterPos(&bw))
	require.Zero(t, VP8EstimateTokenSize(&b, make([]uint8, vp8.NUM_PROBA_SLOTS)))
}

func TestEstimateTokenSize(t *testing.T) {
	probas := make([]uint8, vp8.NUM_PROBA_SLOTS)
	probas[3] = 128
	probas[4] = 255

	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	AddToken(&b, 0, 3)
	AddToken(&b, 1, 3)
	AddToken(&b, 0, 4)
	AddConstantToken(&b, 1, 255)

	expected := VP8BitCost(0, 128) + VP8BitCost(1, 128) + VP8BitCost(0, 255) + VP8BitCost(1, 255)
	require.Equal(t, uint64(expected), VP8EstimateTokenSize(&b, probas))
	require.Equal(t, 256, VP8BitCost(0, 128))
	require.Equal(t, 2048, VP8BitCost(1, 255))
}

func TestResidualCostMatchesTokenEstimate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	proba := newTestProba(t)
	copy(proba.coeffs[:], randomProbas(rng))

	for n := 0; n < 500; n++ {
		blk := randomBlock(rng, 1)
		res := residualOf(&blk, proba)

		var b VP8TBuffer
		VP8TBufferInit(&b, 0)
		VP8RecordCoeffTokens(blk.Ctx, res, &b)

		expected := VP8EstimateTokenSize(&b, proba.coeffs[:])
		require.Equal(t, expected, uint64(VP8GetResidualCost(blk.Ctx, res)))
		VP8TBufferClear(&b)
	}
}

func TestTokenBufferMemory(t *testing.T) {
	var b VP8TBuffer
	VP8TBufferInit(&b, 0)
	require.Zero(t, VP8TBufferMemory(&b))

	for n := 0; n < MIN_PAGE_SIZE+1; n++ {
		AddToken(&b, 1, 0)
	}
	require.Equal(t, 2*MIN_PAGE_SIZE*2, VP8TBufferMemory(&b))

	VP8TBufferClear(&b)
	require.Zero(t, VP8TBufferMemory(&b))
}
