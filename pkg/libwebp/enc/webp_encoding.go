package enc

import (
	"fmt"
	"io"

	"github.com/daanv2/go-vp8enc/pkg/config"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
)

// Main encoding call, after config and frame header have been initialized.
// Every block is recorded in its token partition, the statistics are
// collected (and the probabilities refined if config.ProbaUpdate is set),
// then the frame is written to 'w'. 'stats' is optional.
func WebPEncode(config *config.Config, frame *webp.VP8FrameHeader, blocks []webp.VP8Block, w io.Writer, stats *webp.AuxStats) error {
	if w == nil {
		return webp.VP8_ENC_ERROR_nil_PARAMETER
	}
	if stats != nil {
		*stats = webp.AuxStats{}
	}

	enc, err := InitVP8Encoder(config, frame)
	if err != nil {
		return err
	}
	defer DeleteVP8Encoder(enc) // must always be called, even on error
	enc.stats = stats

	if err := VP8EncRecordBlocks(enc, blocks); err != nil {
		return err
	}
	if err := VP8EncStatLoop(enc); err != nil {
		return err
	}
	if err := VP8EncTokenLoop(enc); err != nil {
		return err
	}
	if err := VP8EncWrite(enc, w); err != nil {
		return err
	}
	StoreStats(enc)
	return nil
}

// WebPCollectStats records 'blocks' and runs the statistics pass only.
// Returns the packed statistics and the coding probabilities that the
// full encoding would use.
func WebPCollectStats(config *config.Config, frame *webp.VP8FrameHeader, blocks []webp.VP8Block) ([]uint32, []uint8, error) {
	enc, err := InitVP8Encoder(config, frame)
	if err != nil {
		return nil, nil, err
	}
	defer DeleteVP8Encoder(enc)

	if err := VP8EncRecordBlocks(enc, blocks); err != nil {
		return nil, nil, err
	}
	if err := VP8EncStatLoop(enc); err != nil {
		return nil, nil, err
	}
	return VP8EncTokenStats(enc), VP8EncCodingProbas(enc), nil
}

func VP8EncRecordBlocks(enc *VP8Encoder, blocks []webp.VP8Block) error {
	for i := range blocks {
		if _, err := VP8EncRecordBlock(enc, &blocks[i]); err != nil {
			return fmt.Errorf("block #%d: %w", i, err)
		}
	}
	return nil
}
