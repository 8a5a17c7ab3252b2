package thread

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleProgram = "DT_IMMI,2,DT_IMMI,1,DT_GT,DT_JZ,13,DT_IMMI,3,DT_IMMI,4,DT_JMP,17,DT_IMMI,5,DT_IMMI,6,DT_ADD,DT_PRINT,DT_END"

func TestIsLabelToken(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{"A", true},
		{"Loop", true},
		{"DT_IMMI", true},
		{"DT_JMP", true},
		{"Z9", true},
		{"a", false},
		{"dt_jmp", false},
		{"13", false},
		{"-1", false},
		{"_X", false},
		{" A", false},
		{"", false},
		{"Ä", false},
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.tok), func(t *testing.T) {
			if got := IsLabelToken(tt.tok); got != tt.want {
				t.Errorf("IsLabelToken(%q) = %v, want %v", tt.tok, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"A,DT_JMP,0", []string{"A", "DT_JMP", "0"}},
		{"", []string{""}},
		{"a,,b", []string{"a", "", "b"}},
		{" A , b", []string{" A ", " b"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Tokenize(tt.src)); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestDiscoverLabels(t *testing.T) {
	labels := DiscoverLabels(Tokenize(sampleProgram))

	wantPos := []int{0, 2, 4, 5, 7, 9, 11, 13, 15, 17, 18, 19}
	if diff := cmp.Diff(wantPos, labels.Positions); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}

	// Ranks strictly increase with position.
	for i, pos := range labels.Positions {
		r, ok := labels.Rank(pos)
		if !ok {
			t.Fatalf("position %d has no rank", pos)
		}
		if r != i {
			t.Errorf("Rank(%d) = %d, want %d", pos, r, i)
		}
	}
	if _, ok := labels.Rank(1); ok {
		t.Error("operand position 1 should not be a label")
	}
}

func TestDiscoverLabelsNone(t *testing.T) {
	labels := DiscoverLabels([]string{"a", "1", "b"})
	if labels.Len() != 0 {
		t.Errorf("Len() = %d, want 0", labels.Len())
	}
}

func TestThreadSample(t *testing.T) {
	res, err := Thread(sampleProgram, DefaultPolicy())
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	wantStream := []string{
		"DT_IMMI", "2", "DT_IMMI", "1", "DT_GT", "DT_JZ", "7",
		"DT_IMMI", "3", "DT_IMMI", "4", "DT_JMP", "9",
		"DT_IMMI", "5", "DT_IMMI", "6", "DT_ADD", "DT_PRINT", "DT_END",
	}
	if diff := cmp.Diff(wantStream, res.StreamValues()); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
	if len(res.Stream) != len(res.Tokens) {
		t.Errorf("stream length %d != token count %d", len(res.Stream), len(res.Tokens))
	}
	if res.Targets() != 2 {
		t.Errorf("Targets() = %d, want 2", res.Targets())
	}
	if !res.Stream[6].Resolved || res.Stream[6].Rank != 7 {
		t.Errorf("slot 6 = %+v, want resolved rank 7", res.Stream[6])
	}
	if res.Stream[1].Resolved {
		t.Error("immediate operand at slot 1 should not be resolved")
	}

	var buf bytes.Buffer
	if _, err := res.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	want := "Thread: { 0, 2, 4, 5, 7, 9, 11, 13, 15, 17, 18, 19 }\n" +
		"Instruments: { DT_IMMI, 2, DT_IMMI, 1, DT_GT, DT_JZ, 7, DT_IMMI, 3, DT_IMMI, 4, DT_JMP, 9, DT_IMMI, 5, DT_IMMI, 6, DT_ADD, DT_PRINT, DT_END }\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestThreadMinimal(t *testing.T) {
	res, err := Thread("A,DT_JMP,0", DefaultPolicy())
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	// DT_JMP is itself a label, so the table holds two positions.
	if diff := cmp.Diff([]int{0, 1}, res.Labels.Positions); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}
	want := Item{Token: "0", Rank: 0, Resolved: true}
	if diff := cmp.Diff(want, res.Stream[2]); diff != "" {
		t.Errorf("slot 2 mismatch (-want +got):\n%s", diff)
	}
	if v, ok := res.Stream[2].Value().(int); !ok || v != 0 {
		t.Errorf("Value() = %#v, want int 0", res.Stream[2].Value())
	}
}

func TestThreadIfElse(t *testing.T) {
	src := "DT_IMMI,1,DT_IF_ELSE,9,13,DT_IMMI,0,DT_SEEK,DT_END,DT_IMMI,123,DT_SEEK,DT_END,DT_IMMI,456,DT_SEEK,DT_END"
	res, err := Thread(src, DefaultPolicy())
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	// labels: 0 2 5 7 8 9 11 12 13 15 16
	if got := res.Stream[3]; !got.Resolved || got.Rank != 5 {
		t.Errorf("true branch = %+v, want rank 5", got)
	}
	if got := res.Stream[4]; !got.Resolved || got.Rank != 8 {
		t.Errorf("false branch = %+v, want rank 8", got)
	}
	if res.Stream[5].Resolved {
		t.Error("token three after DT_IF_ELSE must not be resolved")
	}
}

func TestThreadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		wantPos int
	}{
		{
			name:    "no labels",
			src:     "x,DT_JMP,0",
			wantErr: ErrUnknownLabel,
			wantPos: 2,
		},
		{
			name:    "target is an operand",
			src:     "DT_IMMI,5,DT_JMP,1",
			wantErr: ErrUnknownLabel,
			wantPos: 3,
		},
		{
			name:    "target out of range",
			src:     "A,DT_JZ,42",
			wantErr: ErrUnknownLabel,
			wantPos: 2,
		},
		{
			name:    "non-numeric target",
			src:     "A,DT_JMP,A",
			wantErr: ErrBadOperand,
			wantPos: 2,
		},
		{
			name:    "missing operand",
			src:     "A,DT_JMP_IF,",
			wantErr: ErrBadOperand,
			wantPos: 2,
		},
		{
			name:    "second if-else slot",
			src:     "A,DT_IF_ELSE,0,x",
			wantErr: ErrBadOperand,
			wantPos: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Thread(tt.src, DefaultPolicy())
			if err == nil {
				t.Fatalf("Thread(%q) = %v, want error", tt.src, res.StreamValues())
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var rerr *RewriteError
			if !errors.As(err, &rerr) {
				t.Fatalf("error %T is not a *RewriteError", err)
			}
			if rerr.Pos != tt.wantPos {
				t.Errorf("Pos = %d, want %d", rerr.Pos, tt.wantPos)
			}
		})
	}
}

func TestThreadOperandWhitespace(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"A,DT_JMP, 0", []string{"A", "DT_JMP", "0"}},
		{"A,DT_JMP,0\n", []string{"A", "DT_JMP", "0"}},
		{"A,DT_IF_ELSE,0,0 ", []string{"A", "DT_IF_ELSE", "0", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := Thread(tt.src, DefaultPolicy())
			if err != nil {
				t.Fatalf("Thread(%q) failed: %v", tt.src, err)
			}
			if diff := cmp.Diff(tt.want, res.StreamValues()); diff != "" {
				t.Errorf("stream mismatch (-want +got):\n%s", diff)
			}
			// The original token text is kept.
			last := res.Stream[len(res.Stream)-1]
			if !last.Resolved || last.Token != res.Tokens[len(res.Tokens)-1] {
				t.Errorf("last slot = %+v, want resolved with untrimmed token", last)
			}
		})
	}
}

func TestBadOperandWrapsParseError(t *testing.T) {
	_, err := Thread("A,DT_JMP,zz", DefaultPolicy())
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Errorf("error %v does not wrap *strconv.NumError", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		label  string
		values []string
		want   string
	}{
		{"Thread", []string{"0"}, "Thread: { 0 }"},
		{"Thread", nil, "Thread: {  }"},
		{"Instruments", []string{"A", "DT_JMP", "0"}, "Instruments: { A, DT_JMP, 0 }"},
	}

	for _, tt := range tests {
		if got := Format(tt.label, tt.values); got != tt.want {
			t.Errorf("Format(%q, %v) = %q, want %q", tt.label, tt.values, got, tt.want)
		}
	}
}
