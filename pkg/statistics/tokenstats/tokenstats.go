// Package tokenstats serializes the token statistics of an encoding pass,
// so that a probability model can be built out of process from many
// frames, and reads such a model back.
//
// The wire format is a protobuf message:
//
//	message TokenStats {
//	  uint32 version = 1;
//	  repeated uint32 stats = 2;  // packed, count<<16 | bit-sum, per slot
//	  bytes probas = 3;           // one coding probability per slot
//	}
package tokenstats

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/daanv2/go-vp8enc/pkg/vp8"
)

const VERSION = 1

const (
	fieldVersion protowire.Number = 1
	fieldStats   protowire.Number = 2
	fieldProbas  protowire.Number = 3
)

var ErrMalformed = errors.New("tokenstats: malformed message")

// Table holds one entry per probability slot.
type Table struct {
	Stats  []uint32 // packed count (upper 16 bits) and bit-sum (lower 16 bits)
	Probas []uint8
}

// Count returns how many times slot 'i' was coded.
func (t *Table) Count(i int) int {
	return int(t.Stats[i] >> 16)
}

// Ones returns how many times slot 'i' coded a 1.
func (t *Table) Ones(i int) int {
	return int(t.Stats[i] & 0xffff)
}

// Merge adds the counts of 'other' to 't', halving both counts of a slot
// whenever its total would not fit in 16 bits.
func (t *Table) Merge(other *Table) error {
	if len(t.Stats) != len(other.Stats) {
		return fmt.Errorf("tokenstats: merging %d slots into %d", len(other.Stats), len(t.Stats))
	}
	for i := range t.Stats {
		total := t.Count(i) + other.Count(i)
		nb := t.Ones(i) + other.Ones(i)
		for total > 0xffff {
			total = (total + 1) >> 1
			nb = (nb + 1) >> 1
		}
		t.Stats[i] = uint32(total)<<16 | uint32(nb)
	}
	return nil
}

func (t *Table) validate() error {
	if len(t.Stats) != vp8.NUM_PROBA_SLOTS {
		return fmt.Errorf("tokenstats: %d statistics, want %d", len(t.Stats), vp8.NUM_PROBA_SLOTS)
	}
	if t.Probas != nil && len(t.Probas) != vp8.NUM_PROBA_SLOTS {
		return fmt.Errorf("tokenstats: %d probabilities, want %d", len(t.Probas), vp8.NUM_PROBA_SLOTS)
	}
	return nil
}

// Marshal appends the wire form of 't' to 'b'.
func Marshal(b []byte, t *Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return b, err
	}
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, VERSION)

	var packed []byte
	for _, s := range t.Stats {
		packed = protowire.AppendVarint(packed, uint64(s))
	}
	b = protowire.AppendTag(b, fieldStats, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	if t.Probas != nil {
		b = protowire.AppendTag(b, fieldProbas, protowire.BytesType)
		b = protowire.AppendBytes(b, t.Probas)
	}
	return b, nil
}

// Unmarshal parses a message produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Table, error) {
	t := &Table{}
	version := uint64(0)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
			}
			version = v
			b = b[n:]
		case num == fieldStats && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 || v > 0xffffffff {
					return nil, fmt.Errorf("%w: bad statistics entry", ErrMalformed)
				}
				t.Stats = append(t.Stats, uint32(v))
				packed = packed[m:]
			}
			b = b[n:]
		case num == fieldStats && typ == protowire.VarintType: // unpacked form
			v, n := protowire.ConsumeVarint(b)
			if n < 0 || v > 0xffffffff {
				return nil, fmt.Errorf("%w: bad statistics entry", ErrMalformed)
			}
			t.Stats = append(t.Stats, uint32(v))
			b = b[n:]
		case num == fieldProbas && typ == protowire.BytesType:
			probas, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
			}
			t.Probas = append([]uint8(nil), probas...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if version != VERSION {
		return nil, fmt.Errorf("tokenstats: unsupported version %d", version)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}
