// Package vp8enc codes blocks of quantized VP8 coefficients into a
// keyframe bitstream: a statistics pass over the recorded tokens, then the
// final coding with the refined probabilities.
package vp8enc

import (
	"errors"
	"io"

	"github.com/daanv2/go-vp8enc/pkg/config"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/enc"
	"github.com/daanv2/go-vp8enc/pkg/libwebp/webp"
	"github.com/daanv2/go-vp8enc/pkg/statistics/tokenstats"
)

// Encode writes the frame made of 'hdr' and 'blocks' to 'w'. A nil 'conf'
// selects the defaults.
func Encode(w io.Writer, blocks []webp.VP8Block, hdr *webp.VP8FrameHeader, conf *config.Config) error {
	return EncodeWithStats(w, blocks, hdr, conf, nil)
}

// EncodeWithStats is Encode, also reporting where the bytes went.
func EncodeWithStats(w io.Writer, blocks []webp.VP8Block, hdr *webp.VP8FrameHeader, conf *config.Config, stats *webp.AuxStats) error {
	if w == nil {
		return errors.New("writer is nil")
	}
	if hdr == nil {
		return errors.New("frame header is nil")
	}
	if conf == nil {
		conf = &config.Config{}
		if err := conf.Init(); err != nil {
			return err
		}
	}

	return enc.WebPEncode(conf, hdr, blocks, w, stats)
}

// ExportStats runs the statistics pass only and returns the collected
// statistics and the probabilities the encoding would use, in the
// tokenstats wire format.
func ExportStats(blocks []webp.VP8Block, hdr *webp.VP8FrameHeader, conf *config.Config) ([]byte, error) {
	if hdr == nil {
		return nil, errors.New("frame header is nil")
	}
	if conf == nil {
		conf = &config.Config{}
		if err := conf.Init(); err != nil {
			return nil, err
		}
	}

	stats, probas, err := enc.WebPCollectStats(conf, hdr, blocks)
	if err != nil {
		return nil, err
	}
	return tokenstats.Marshal(nil, &tokenstats.Table{Stats: stats, Probas: probas})
}
