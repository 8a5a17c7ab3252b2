package thread

import "sort"

// Jump-family mnemonics.
const (
	OpJmp    = "DT_JMP"
	OpJz     = "DT_JZ"
	OpJmpIf  = "DT_JMP_IF"
	OpIfElse = "DT_IF_ELSE"
)

// Policy maps an opcode to the offsets after it that hold jump targets.
// Offset 1 is the token immediately following the opcode.
type Policy map[string][]int

// DefaultPolicy returns the jump table for the DT_* instruction set.
func DefaultPolicy() Policy {
	return Policy{
		OpJmp:    {1},
		OpJz:     {1},
		OpJmpIf:  {1},
		OpIfElse: {1, 2},
	}
}

// Window returns the largest offset any opcode uses.
func (p Policy) Window() int {
	w := 0
	for _, offs := range p {
		for _, o := range offs {
			if o > w {
				w = o
			}
		}
	}
	return w
}

// IsTarget reports whether tokens[i] is a jump-target operand: some token
// d positions back is an opcode whose offsets include d. Smaller offsets are
// checked first.
func (p Policy) IsTarget(tokens []string, i int) bool {
	w := p.Window()
	for d := 1; d <= w && d <= i; d++ {
		for _, o := range p[tokens[i-d]] {
			if o == d {
				return true
			}
		}
	}
	return false
}

// Opcodes returns the opcodes in the policy, sorted.
func (p Policy) Opcodes() []string {
	ops := make([]string, 0, len(p))
	for op := range p {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
