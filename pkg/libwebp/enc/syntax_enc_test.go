package enc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daanv2/go-vp8enc/pkg/libwebp/endian"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/vp8"
	"github.com/daanv2/go-vp8enc/pkg/vp8/vp8test"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestFrameTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PutVP8FrameTag(&buf, 0, 100))
	// show flag and 100<<5
	require.Equal(t, []byte{0x90, 0x0c, 0x00}, buf.Bytes())

	buf.Reset()
	require.NoError(t, PutVP8FrameTag(&buf, 3, webp.VP8_MAX_PARTITION0_SIZE-1))
	bits := endian.GetLE24(buf.Bytes())
	require.Zero(t, bits&1) // keyframe
	require.Equal(t, uint32(3), (bits>>1)&7)
	require.Equal(t, uint32(1), (bits>>4)&1)
	require.Equal(t, uint32(webp.VP8_MAX_PARTITION0_SIZE-1), bits>>5)

	buf.Reset()
	err := PutVP8FrameTag(&buf, 0, webp.VP8_MAX_PARTITION0_SIZE)
	require.ErrorIs(t, err, webp.VP8_ENC_ERROR_PARTITION0_OVERFLOW)
	require.Zero(t, buf.Len())

	err = PutVP8FrameTag(failingWriter{}, 0, 10)
	require.ErrorIs(t, err, webp.VP8_ENC_ERROR_BAD_WRITE)
}

func TestPartitionSize(t *testing.T) {
	dst := make([]uint8, 3)
	require.NoError(t, PutPartitionSize(dst, webp.VP8_MAX_PARTITION_SIZE-1))
	require.Equal(t, []uint8{0xff, 0xff, 0xff}, dst)

	require.NoError(t, PutPartitionSize(dst, 0x012345))
	require.Equal(t, []uint8{0x45, 0x23, 0x01}, dst)

	err := PutPartitionSize(dst, webp.VP8_MAX_PARTITION_SIZE)
	require.ErrorIs(t, err, webp.VP8_ENC_ERROR_PARTITION_OVERFLOW)
}

func TestPartitionsLog2(t *testing.T) {
	require.Equal(t, uint32(0), PartitionsLog2(1))
	require.Equal(t, uint32(1), PartitionsLog2(2))
	require.Equal(t, uint32(2), PartitionsLog2(4))
	require.Equal(t, uint32(3), PartitionsLog2(8))
}

func TestEmitPartitionsSize(t *testing.T) {
	enc := &VP8Encoder{num_parts: 4}
	for p := 0; p < enc.num_parts; p++ {
		require.True(t, vp8.VP8BitWriterInit(&enc.parts[p], 0))
		for i := 0; i <= p*300; i++ {
			vp8.VP8PutBits(&enc.parts[p], uint32(i), 8)
		}
		vp8.VP8BitWriterFinish(&enc.parts[p])
	}

	var buf bytes.Buffer
	require.NoError(t, EmitPartitionsSize(enc, &buf))
	require.Equal(t, 3*3, buf.Len())
	for p := 0; p < enc.num_parts-1; p++ {
		size := endian.GetLE24(buf.Bytes()[3*p:])
		require.Equal(t, vp8.VP8BitWriterSize(&enc.parts[p]), uint64(size))
	}

	// a single partition has no size table
	buf.Reset()
	enc.num_parts = 1
	require.NoError(t, EmitPartitionsSize(enc, &buf))
	require.Zero(t, buf.Len())
}

func TestFrameHeaderDecodesBack(t *testing.T) {
	hdr := testFrameHeader()
	conf := testConfig(t)
	enc, err := InitVP8Encoder(conf, hdr)
	require.NoError(t, err)
	defer DeleteVP8Encoder(enc)

	require.NoError(t, GeneratePartition0(enc))
	require.Positive(t, enc.header_bits[0])
	require.Positive(t, enc.header_bits[1])

	br := vp8test.VP8InitBitReader(vp8.VP8BitWriterBuf(&enc.bw))
	decoded := decodeFrameHeader(t, br)
	require.Equal(t, hdr.Segments, decoded.Segments)
	require.Equal(t, hdr.SegmentQuant, decoded.SegmentQuant)
	require.Equal(t, hdr.SegmentFilter, decoded.SegmentFilter)
	require.Equal(t, hdr.SegmentProbas, decoded.SegmentProbas)
	require.Equal(t, hdr.FilterSimple, decoded.FilterSimple)
	require.Equal(t, hdr.FilterLevel, decoded.FilterLevel)
	require.Equal(t, hdr.Sharpness, decoded.Sharpness)
	require.Equal(t, hdr.I4x4LfDelta, decoded.I4x4LfDelta)
	require.Equal(t, hdr.BaseQuant, decoded.BaseQuant)
	require.Equal(t, []int{hdr.DqY1DC, hdr.DqY2DC, hdr.DqY2AC, hdr.DqUVDC, hdr.DqUVAC},
		[]int{decoded.DqY1DC, decoded.DqY2DC, decoded.DqY2AC, decoded.DqUVDC, decoded.DqUVAC})
	require.Equal(t, 1, decoded.partitions)
	require.Equal(t, hdr.UseSkipProba, decoded.UseSkipProba)
	require.Equal(t, hdr.SkipProba, decoded.SkipProba)
	require.Equal(t, enc.proba.base[:], decoded.probas)
}

func TestPartition0MemoryLimit(t *testing.T) {
	enc, err := InitVP8Encoder(testConfig(t), testFrameHeader())
	require.NoError(t, err)
	defer DeleteVP8Encoder(enc)

	vp8.VP8BitWriterSetLimit(&enc.bw, 16)
	var buf bytes.Buffer
	err = VP8EncWrite(enc, &buf)
	require.ErrorIs(t, err, webp.VP8_ENC_ERROR_OUT_OF_MEMORY)
	require.Zero(t, buf.Len())
}

func TestWriteReportsBadWrite(t *testing.T) {
	enc, err := InitVP8Encoder(testConfig(t), testFrameHeader())
	require.NoError(t, err)
	defer DeleteVP8Encoder(enc)
	require.NoError(t, VP8EncStatLoop(enc))
	require.NoError(t, VP8EncTokenLoop(enc))

	err = VP8EncWrite(enc, failingWriter{})
	require.ErrorIs(t, err, webp.VP8_ENC_ERROR_BAD_WRITE)
}
