package vm

// Opcode identifies a DT_* instruction.
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpShl
	OpShr
	OpFPAdd
	OpFPSub
	OpFPMul
	OpFPDiv
	OpEnd
	OpLod
	OpSto
	OpImmi
	OpInc
	OpDec
	OpStoImmi
	OpMemcpy
	OpMemset
	OpJmp
	OpJz
	OpJmpIf
	OpIfElse
	OpGt
	OpLt
	OpEq
	OpGtEq
	OpLtEq
	OpCall
	OpRet
	OpSeek
	OpPrint
	OpReadInt
	OpFPPrint
	OpFPRead
	opCount
)

type opInfo struct {
	name     string
	operands int
}

var opInfos = [opCount]opInfo{
	OpInvalid: {"DT_INVALID", 0},
	OpAdd:     {"DT_ADD", 0},
	OpSub:     {"DT_SUB", 0},
	OpMul:     {"DT_MUL", 0},
	OpDiv:     {"DT_DIV", 0},
	OpShl:     {"DT_SHL", 0},
	OpShr:     {"DT_SHR", 0},
	OpFPAdd:   {"DT_FP_ADD", 0},
	OpFPSub:   {"DT_FP_SUB", 0},
	OpFPMul:   {"DT_FP_MUL", 0},
	OpFPDiv:   {"DT_FP_DIV", 0},
	OpEnd:     {"DT_END", 0},
	OpLod:     {"DT_LOD", 1},
	OpSto:     {"DT_STO", 1},
	OpImmi:    {"DT_IMMI", 1},
	OpInc:     {"DT_INC", 0},
	OpDec:     {"DT_DEC", 0},
	OpStoImmi: {"DT_STO_IMMI", 2},
	OpMemcpy:  {"DT_MEMCPY", 3},
	OpMemset:  {"DT_MEMSET", 3},
	OpJmp:     {"DT_JMP", 1},
	OpJz:      {"DT_JZ", 1},
	OpJmpIf:   {"DT_JMP_IF", 1},
	OpIfElse:  {"DT_IF_ELSE", 2},
	OpGt:      {"DT_GT", 0},
	OpLt:      {"DT_LT", 0},
	OpEq:      {"DT_EQ", 0},
	OpGtEq:    {"DT_GT_EQ", 0},
	OpLtEq:    {"DT_LT_EQ", 0},
	OpCall:    {"DT_CALL", 2},
	OpRet:     {"DT_RET", 0},
	OpSeek:    {"DT_SEEK", 0},
	OpPrint:   {"DT_PRINT", 0},
	OpReadInt: {"DT_READ_INT", 1},
	OpFPPrint: {"DT_FP_PRINT", 0},
	OpFPRead:  {"DT_FP_READ", 1},
}

var opByName = func() map[string]Opcode {
	m := make(map[string]Opcode, opCount+1)
	for op := OpAdd; op < opCount; op++ {
		m[opInfos[op].name] = op
	}
	m["DT_JUMP_IF"] = OpJmpIf
	return m
}()

// Lookup returns the opcode for a mnemonic.
func Lookup(name string) (Opcode, bool) {
	op, ok := opByName[name]
	return op, ok
}

func (op Opcode) String() string {
	if op >= opCount {
		return "DT_INVALID"
	}
	return opInfos[op].name
}

// Operands returns the number of words following op in the stream.
func (op Opcode) Operands() int {
	if op >= opCount {
		return 0
	}
	return opInfos[op].operands
}
