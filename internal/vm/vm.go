// Package vm runs DT_* programs on a small stack machine. A program can be
// executed direct-threaded, with jump operands holding stream positions, or
// indirect-threaded, with jump operands holding ranks into a thread table.
package vm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
)

// Defaults for Config.
const (
	DefaultMemorySize = 4 * 1024 * 1024
	DefaultMaxSteps   = 1_000_000
)

var (
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrCallUnderflow      = errors.New("return without call")
	ErrDivideByZero       = errors.New("division by zero")
	ErrMemoryBounds       = errors.New("memory access out of bounds")
	ErrBadTarget          = errors.New("jump target out of range")
	ErrBadOperand         = errors.New("operand is not a value")
	ErrMissingOperand     = errors.New("missing operand")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrStepLimit          = errors.New("step limit exceeded")
)

// Fault is an execution error at a stream position.
type Fault struct {
	IP   int
	Text string
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("at %d (%s): %v", f.IP, f.Text, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Config sizes a Machine. Zero values select the defaults; a negative
// MaxSteps disables the limit.
type Config struct {
	MemorySize int
	MaxSteps   int
}

// Machine executes programs. It is not safe for concurrent use.
type Machine struct {
	Memory []byte
	Seek   uint32 // written by DT_SEEK
	Stdout io.Writer
	Stdin  io.Reader

	maxSteps int
	steps    int
	frames   [][]uint32
	calls    []int
	prog     *Program
	ip       int
	halted   bool
}

// New returns a machine with zeroed memory and an empty stack.
func New(cfg Config) *Machine {
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = DefaultMemorySize
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &Machine{
		Memory:   make([]byte, cfg.MemorySize),
		Seek:     0xFFFFFFFF,
		Stdout:   os.Stdout,
		Stdin:    os.Stdin,
		maxSteps: cfg.MaxSteps,
		frames:   [][]uint32{nil},
	}
}

// Stack returns a copy of the current frame's stack, bottom first.
func (m *Machine) Stack() []uint32 {
	return append([]uint32(nil), m.frames[len(m.frames)-1]...)
}

// Steps returns the number of instructions executed by the last Run.
func (m *Machine) Steps() int { return m.steps }

// Run executes p from position 0 until DT_END, the end of the stream or an
// error.
func (m *Machine) Run(ctx context.Context, p *Program) error {
	m.prog = p
	m.steps = 0
	m.halted = false
	slog.Debug("VM run", "words", len(p.Words), "thread", len(p.Thread))

	for m.ip = 0; m.ip < len(p.Words) && !m.halted; m.ip++ {
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return m.fault(ErrStepLimit)
		}
		if m.steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		m.steps++

		if err := m.exec(p.Words[m.ip]); err != nil {
			return err
		}
	}

	slog.Debug("VM stopped", "steps", m.steps, "seek", m.Seek)
	return nil
}

func (m *Machine) fault(err error) error {
	text := ""
	if m.ip >= 0 && m.ip < len(m.prog.Words) {
		text = m.prog.Words[m.ip].Text
	}
	return &Fault{IP: m.ip, Text: text, Err: err}
}

func (m *Machine) push(v uint32) {
	top := len(m.frames) - 1
	m.frames[top] = append(m.frames[top], v)
}

func (m *Machine) pop() (uint32, error) {
	top := len(m.frames) - 1
	st := m.frames[top]
	if len(st) == 0 {
		return 0, m.fault(ErrStackUnderflow)
	}
	v := st[len(st)-1]
	m.frames[top] = st[:len(st)-1]
	return v, nil
}

func (m *Machine) peek() (uint32, error) {
	st := m.frames[len(m.frames)-1]
	if len(st) == 0 {
		return 0, m.fault(ErrStackUnderflow)
	}
	return st[len(st)-1], nil
}

// pop2 pops a then b, so that binary operations compute b op a.
func (m *Machine) pop2() (a, b uint32, err error) {
	if a, err = m.pop(); err != nil {
		return
	}
	b, err = m.pop()
	return
}

// operand advances ip to the next word and returns its value.
func (m *Machine) operand() (Word, error) {
	m.ip++
	if m.ip >= len(m.prog.Words) {
		return Word{}, m.fault(ErrMissingOperand)
	}
	w := m.prog.Words[m.ip]
	if w.Op != OpInvalid || w.Marker {
		return Word{}, m.fault(ErrBadOperand)
	}
	return w, nil
}

func (m *Machine) value() (uint32, error) {
	w, err := m.operand()
	return w.Val, err
}

// target reads a jump operand and returns the stream position it names.
// Indirect operands are resolved through the thread table.
func (m *Machine) target() (int, error) {
	w, err := m.operand()
	if err != nil {
		return 0, err
	}
	pos := int(w.Val)
	if w.Indirect {
		if pos < 0 || pos >= len(m.prog.Thread) {
			return 0, m.fault(ErrBadTarget)
		}
		pos = m.prog.Thread[pos]
	}
	if pos < 0 || pos >= len(m.prog.Words) {
		return 0, m.fault(ErrBadTarget)
	}
	return pos, nil
}

// jump makes pos the next instruction executed.
func (m *Machine) jump(pos int) { m.ip = pos - 1 }

func (m *Machine) mem(off, size uint32) ([]byte, error) {
	end := uint64(off) + uint64(size)
	if end > uint64(len(m.Memory)) {
		return nil, m.fault(ErrMemoryBounds)
	}
	return m.Memory[off:end], nil
}

func (m *Machine) exec(w Word) error {
	if w.Marker {
		return nil
	}
	switch w.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpShl, OpShr,
		OpGt, OpLt, OpEq, OpGtEq, OpLtEq:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		r, err := m.intOp(w.Op, a, b)
		if err != nil {
			return err
		}
		m.push(r)

	case OpFPAdd, OpFPSub, OpFPMul, OpFPDiv:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		fa, fb := math.Float32frombits(a), math.Float32frombits(b)
		var r float32
		switch w.Op {
		case OpFPAdd:
			r = fb + fa
		case OpFPSub:
			r = fb - fa
		case OpFPMul:
			r = fb * fa
		case OpFPDiv:
			if fa == 0 {
				return m.fault(ErrDivideByZero)
			}
			r = fb / fa
		}
		m.push(math.Float32bits(r))

	case OpInc, OpDec:
		a, err := m.pop()
		if err != nil {
			return err
		}
		if w.Op == OpInc {
			a++
		} else {
			a--
		}
		m.push(a)

	case OpEnd:
		m.halted = true

	case OpImmi:
		v, err := m.value()
		if err != nil {
			return err
		}
		m.push(v)

	case OpLod:
		off, err := m.value()
		if err != nil {
			return err
		}
		b, err := m.mem(off, 4)
		if err != nil {
			return err
		}
		m.push(binary.LittleEndian.Uint32(b))

	case OpSto:
		off, err := m.value()
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		b, err := m.mem(off, 4)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, v)

	case OpStoImmi:
		off, err := m.value()
		if err != nil {
			return err
		}
		v, err := m.value()
		if err != nil {
			return err
		}
		b, err := m.mem(off, 4)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, v)

	case OpMemcpy, OpMemset:
		var args [3]uint32
		for i := range args {
			v, err := m.value()
			if err != nil {
				return err
			}
			args[i] = v
		}
		dst, err := m.mem(args[0], args[2])
		if err != nil {
			return err
		}
		if w.Op == OpMemset {
			for i := range dst {
				dst[i] = byte(args[1])
			}
			break
		}
		src, err := m.mem(args[1], args[2])
		if err != nil {
			return err
		}
		copy(dst, src)

	case OpJmp:
		pos, err := m.target()
		if err != nil {
			return err
		}
		m.jump(pos)

	case OpJz:
		pos, err := m.target()
		if err != nil {
			return err
		}
		c, err := m.pop()
		if err != nil {
			return err
		}
		if c == 0 {
			m.jump(pos)
		}

	case OpJmpIf:
		c, err := m.pop()
		if err != nil {
			return err
		}
		pos, err := m.target()
		if err != nil {
			return err
		}
		if c != 0 {
			m.jump(pos)
		}

	case OpIfElse:
		c, err := m.pop()
		if err != nil {
			return err
		}
		onTrue, err := m.target()
		if err != nil {
			return err
		}
		onFalse, err := m.target()
		if err != nil {
			return err
		}
		if c != 0 {
			m.jump(onTrue)
		} else {
			m.jump(onFalse)
		}

	case OpCall:
		pos, err := m.target()
		if err != nil {
			return err
		}
		n, err := m.value()
		if err != nil {
			return err
		}
		top := len(m.frames) - 1
		st := m.frames[top]
		if uint64(n) > uint64(len(st)) {
			return m.fault(ErrStackUnderflow)
		}
		split := len(st) - int(n)
		args := append([]uint32(nil), st[split:]...)
		m.frames[top] = st[:split]
		m.frames = append(m.frames, args)
		m.calls = append(m.calls, m.ip)
		m.jump(pos)

	case OpRet:
		if len(m.calls) == 0 {
			return m.fault(ErrCallUnderflow)
		}
		rv, err := m.peek()
		if err != nil {
			return err
		}
		m.frames = m.frames[:len(m.frames)-1]
		m.ip = m.calls[len(m.calls)-1]
		m.calls = m.calls[:len(m.calls)-1]
		m.push(rv)

	case OpSeek:
		v, err := m.peek()
		if err != nil {
			return err
		}
		m.Seek = v

	case OpPrint:
		v, err := m.peek()
		if err != nil {
			return err
		}
		fmt.Fprintln(m.Stdout, int32(v))

	case OpFPPrint:
		v, err := m.peek()
		if err != nil {
			return err
		}
		f := math.Float32frombits(v)
		fmt.Fprintln(m.Stdout, strconv.FormatFloat(float64(f), 'g', 6, 32))

	case OpReadInt, OpFPRead:
		off, err := m.value()
		if err != nil {
			return err
		}
		b, err := m.mem(off, 4)
		if err != nil {
			return err
		}
		var v uint32
		if w.Op == OpReadInt {
			var n int32
			if _, err := fmt.Fscan(m.Stdin, &n); err != nil {
				return m.fault(fmt.Errorf("read int: %w", err))
			}
			v = uint32(n)
		} else {
			var f float32
			if _, err := fmt.Fscan(m.Stdin, &f); err != nil {
				return m.fault(fmt.Errorf("read float: %w", err))
			}
			v = math.Float32bits(f)
		}
		binary.LittleEndian.PutUint32(b, v)

	default:
		return m.fault(ErrUnknownInstruction)
	}
	return nil
}

func (m *Machine) intOp(op Opcode, a, b uint32) (uint32, error) {
	switch op {
	case OpAdd:
		return b + a, nil
	case OpSub:
		return b - a, nil
	case OpMul:
		return b * a, nil
	case OpDiv:
		if a == 0 {
			return 0, m.fault(ErrDivideByZero)
		}
		return b / a, nil
	case OpShl:
		return b << a, nil
	case OpShr:
		return b >> a, nil
	case OpGt:
		return boolWord(b > a), nil
	case OpLt:
		return boolWord(b < a), nil
	case OpEq:
		return boolWord(b == a), nil
	case OpGtEq:
		return boolWord(b >= a), nil
	case OpLtEq:
		return boolWord(b <= a), nil
	}
	return 0, m.fault(ErrUnknownInstruction)
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
