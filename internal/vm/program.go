package vm

import (
	"fmt"
	"math"
	"strconv"

	"threadgen/internal/thread"
)

// Word is one decoded slot of a program.
type Word struct {
	Op       Opcode // OpInvalid for data words and markers
	Val      uint32
	Indirect bool // Val is a rank into the program's thread table
	Marker   bool // a label that is not an instruction; executes as a no-op
	Text     string
}

// Program is a decoded instruction stream and the thread table its
// indirect operands index.
type Program struct {
	Words  []Word
	Thread []int
}

// Load decodes a rewritten stream. Every slot is decoded on its own: DT_*
// mnemonics become instructions, resolved items become indirect operands,
// numbers become data and any other label token becomes a marker.
func Load(items []thread.Item, table []int) (*Program, error) {
	p := &Program{Words: make([]Word, len(items)), Thread: table}
	for i, it := range items {
		w, err := decode(it, table)
		if err != nil {
			return nil, fmt.Errorf("decode slot %d: %w", i, err)
		}
		p.Words[i] = w
	}
	return p, nil
}

// LoadThreaded decodes res for indirect-threaded execution.
func LoadThreaded(res *thread.Result) (*Program, error) {
	return Load(res.Stream, res.Labels.Positions)
}

// LoadDirect decodes tokens as they are, with jump operands holding raw
// positions.
func LoadDirect(tokens []string) (*Program, error) {
	items := make([]thread.Item, len(tokens))
	for i, tok := range tokens {
		items[i] = thread.Item{Token: tok}
	}
	return Load(items, nil)
}

func decode(it thread.Item, table []int) (Word, error) {
	if it.Resolved {
		if it.Rank < 0 || it.Rank >= len(table) {
			return Word{}, fmt.Errorf("rank %d: %w", it.Rank, ErrBadTarget)
		}
		return Word{Val: uint32(it.Rank), Indirect: true, Text: it.String()}, nil
	}
	if op, ok := Lookup(it.Token); ok {
		return Word{Op: op, Text: it.Token}, nil
	}
	if thread.IsLabelToken(it.Token) {
		return Word{Marker: true, Text: it.Token}, nil
	}
	v, err := ParseValue(it.Token)
	if err != nil {
		return Word{}, err
	}
	return Word{Val: v, Text: it.Token}, nil
}

// ParseValue converts an operand token to a machine word. Decimal integers
// (negative ones in two's complement) are taken as is; anything else that
// parses as a float is stored as its float32 bits.
func ParseValue(tok string) (uint32, error) {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		if n < math.MinInt32 || n > math.MaxUint32 {
			return 0, fmt.Errorf("value %q out of range", tok)
		}
		return uint32(n), nil
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("bad operand %q: %w", tok, ErrBadOperand)
	}
	return math.Float32bits(float32(f)), nil
}
