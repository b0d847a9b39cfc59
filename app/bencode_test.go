package app

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestDecodeBencode_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string", "5:hello", `"hello"`},
		{"empty string", "0:", `""`},
		{"integer", "i52e", `52`},
		{"negative integer", "i-52e", `-52`},
		{"zero", "i0e", `0`},
		{"list", "l5:helloi52ee", `["hello",52]`},
		{"empty list", "le", `[]`},
		{"nested list", "lli1eel0:ee", `[[1],[""]]`},
		{"dictionary", "d3:foo3:bar5:helloi52ee", `{"foo":"bar","hello":52}`},
		{"empty dictionary", "de", `{}`},
		{"nested dictionary", "d4:infod6:lengthi100eee", `{"info":{"length":100}}`},
		{"insertion order kept", "d1:bi1e1:ai2ee", `{"b":1,"a":2}`},
		{"duplicate key last wins", "d1:ai1e1:bi2e1:ai3ee", `{"a":3,"b":2}`},
		{"string with colon and e", "5:a:e:i", `"a:e:i"`},
		{"url", "31:http://tracker.example/announce", `"http://tracker.example/announce"`},
		{"max int64", "i9223372036854775807e", `9223372036854775807`},
		{"min int64", "i-9223372036854775808e", `-9223372036854775808`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := DecodeBencode([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeBencode(%q) error = %v", tt.input, err)
			}
			got, err := MarshalBNode(&node)
			if err != nil {
				t.Fatalf("MarshalBNode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DecodeBencode(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeBencode_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cause  error
		offset int
	}{
		{"empty input", "", ErrUnexpectedEOF, 0},
		{"truncated payload", "5:ab", ErrUnexpectedEOF, 2},
		{"missing integer terminator", "i5", ErrMissingTerminator, 0},
		{"unrecognized tag", "x", ErrUnrecognizedTag, 0},
		{"missing colon", "5hello", ErrMissingDelimiter, 1},
		{"length without colon", "12", ErrMissingDelimiter, 2},
		{"length overflow", "99999999999999999999:a", ErrInvalidLength, 0},
		{"empty integer", "ie", ErrInvalidInteger, 1},
		{"lone minus", "i-e", ErrInvalidInteger, 1},
		{"plus sign", "i+5e", ErrInvalidInteger, 1},
		{"non-numeric integer", "i5x2e", ErrInvalidInteger, 2},
		{"fractional integer", "i1.5e", ErrInvalidInteger, 2},
		{"integer overflow", "i9223372036854775808e", ErrIntegerOverflow, 1},
		{"integer underflow", "i-9223372036854775809e", ErrIntegerOverflow, 1},
		{"unterminated list", "l5:hello", ErrMissingTerminator, 8},
		{"unterminated dictionary", "d3:foo3:bar", ErrMissingTerminator, 11},
		{"dictionary missing value", "d3:foo", ErrUnexpectedEOF, 6},
		{"integer key", "di1ei2ee", ErrNonStringKey, 1},
		{"list key", "dlei2ee", ErrNonStringKey, 1},
		{"bad element", "l5:hellox", ErrUnrecognizedTag, 8},
		{"trailing data", "i1ei2e", ErrTrailingData, 3},
		{"trailing terminator", "lee", ErrTrailingData, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBencode([]byte(tt.input))
			if err == nil {
				t.Fatalf("DecodeBencode(%q) expected error", tt.input)
			}
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("error %v should match ErrMalformedInput", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("error %v should match %v", err, tt.cause)
			}

			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("error %T should be *SyntaxError", err)
			}
			if syntaxErr.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", syntaxErr.Offset, tt.offset)
			}
		})
	}
}

func TestDecodeAt_Cursor(t *testing.T) {
	buf := []byte("i52e5:hellol1:ae")

	node, next, err := DecodeAt(buf, 0)
	if err != nil {
		t.Fatalf("DecodeAt(0) error = %v", err)
	}
	if node.Type != BInt || node.Int != 52 || next != 4 {
		t.Errorf("DecodeAt(0) = %v, %d; want integer 52, 4", node, next)
	}

	node, next, err = DecodeAt(buf, next)
	if err != nil {
		t.Fatalf("DecodeAt(4) error = %v", err)
	}
	if node.Type != BString || string(node.Str) != "hello" || next != 11 {
		t.Errorf("DecodeAt(4) = %v, %d; want string hello, 11", node, next)
	}

	node, next, err = DecodeAt(buf, next)
	if err != nil {
		t.Fatalf("DecodeAt(11) error = %v", err)
	}
	if node.Type != BList || len(node.List) != 1 || next != len(buf) {
		t.Errorf("DecodeAt(11) = %v, %d; want one-element list, %d", node, next, len(buf))
	}

	if _, _, err := DecodeAt(buf, next); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("DecodeAt at end of input error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestDecodeAt_InvalidCursor(t *testing.T) {
	buf := []byte("i1e")
	for _, pos := range []int{-1, 4} {
		_, next, err := DecodeAt(buf, pos)
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("DecodeAt(%d) error = %v, want ErrMalformedInput", pos, err)
		}
		if next != pos {
			t.Errorf("DecodeAt(%d) returned cursor %d, want it unchanged", pos, next)
		}
	}
}

func TestDecodeAt_ErrorKeepsCursor(t *testing.T) {
	buf := []byte("i1el5:ab")
	_, next, err := DecodeAt(buf, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if next != 3 {
		t.Errorf("cursor after failure = %d, want 3", next)
	}
}

func TestDecodeBencode_BinaryPayload(t *testing.T) {
	payload := []byte{0x00, 0xff, 0xfe, ':', 'e', 0x80, 0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e}
	input := append([]byte("20:"), payload...)

	node, err := DecodeBencode(input)
	if err != nil {
		t.Fatalf("DecodeBencode() error = %v", err)
	}
	b, err := node.AsBytes()
	if err != nil {
		t.Fatalf("AsBytes() error = %v", err)
	}
	if !bytes.Equal(b, payload) {
		t.Errorf("payload = %x, want %x", b, payload)
	}

	// The node owns its payload.
	input[3] = 'X'
	if b[0] != 0x00 {
		t.Error("decoded payload shares memory with the input buffer")
	}
}

func TestDecodeBencode_NestingLimit(t *testing.T) {
	nested := func(n int) []byte {
		return []byte(strings.Repeat("l", n) + strings.Repeat("e", n))
	}

	t.Run("default limit accepted", func(t *testing.T) {
		if _, err := DecodeBencode(nested(DefaultMaxDepth)); err != nil {
			t.Errorf("depth %d error = %v", DefaultMaxDepth, err)
		}
	})

	t.Run("default limit exceeded", func(t *testing.T) {
		_, err := DecodeBencode(nested(DefaultMaxDepth + 1))
		if !errors.Is(err, ErrNestingTooDeep) {
			t.Errorf("error = %v, want ErrNestingTooDeep", err)
		}
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("error %v should match ErrMalformedInput", err)
		}
	})

	t.Run("custom limit", func(t *testing.T) {
		if _, err := DecodeBencode(nested(3), WithMaxDepth(3)); err != nil {
			t.Errorf("depth 3 with limit 3 error = %v", err)
		}
		_, err := DecodeBencode(nested(4), WithMaxDepth(3))
		if !errors.Is(err, ErrNestingTooDeep) {
			t.Errorf("depth 4 with limit 3 error = %v, want ErrNestingTooDeep", err)
		}
	})

	t.Run("dictionaries count", func(t *testing.T) {
		_, err := DecodeBencode([]byte("d1:ad1:bleee"), WithMaxDepth(2))
		if !errors.Is(err, ErrNestingTooDeep) {
			t.Errorf("error = %v, want ErrNestingTooDeep", err)
		}
	})

	t.Run("siblings do not accumulate", func(t *testing.T) {
		if _, err := DecodeBencode([]byte("llelelelee"), WithMaxDepth(2)); err != nil {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("very deep input does not crash", func(t *testing.T) {
		_, err := DecodeBencode(nested(1_000_000))
		if !errors.Is(err, ErrNestingTooDeep) {
			t.Errorf("error = %v, want ErrNestingTooDeep", err)
		}
	})

	t.Run("non-positive limit uses default", func(t *testing.T) {
		if _, err := DecodeBencode(nested(10), WithMaxDepth(0)); err != nil {
			t.Errorf("error = %v", err)
		}
	})
}

func TestDecodeBencode_Logger(t *testing.T) {
	var trace bytes.Buffer
	logger := log.New(&trace, "", 0)

	if _, err := DecodeBencode([]byte("d1:ai1e1:ai2ee"), WithLogger(logger)); err != nil {
		t.Fatalf("DecodeBencode() error = %v", err)
	}
	out := trace.String()
	for _, want := range []string{"integer at 4: 1", `duplicate key "a"`, "dictionary at 0: 1 keys"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace %q should contain %q", out, want)
		}
	}
}

func TestMarshalBNode(t *testing.T) {
	dict := NewDict()
	_ = dict.Set("z", NewInt(1))
	_ = dict.Set("<a&b>", NewString([]byte{'o', 0xff, 'k'}))
	_ = dict.Set("list", NewList(NewInt(-1), NewList(), NewDict()))

	got, err := MarshalBNode(dict)
	if err != nil {
		t.Fatalf("MarshalBNode() error = %v", err)
	}
	want := `{"z":1,"<a&b>":"o\ufffdk","list":[-1,[],{}]}`
	if string(got) != want {
		t.Errorf("MarshalBNode() = %s, want %s", got, want)
	}
}

func TestMarshalBNode_Invalid(t *testing.T) {
	if _, err := MarshalBNode(nil); err == nil {
		t.Error("MarshalBNode(nil) expected error")
	}
	if _, err := MarshalBNode(&BNode{Type: BType(42)}); err == nil {
		t.Error("MarshalBNode(unknown type) expected error")
	}
	if _, err := MarshalBNode(NewList(nil)); err == nil {
		t.Error("MarshalBNode(list with nil) expected error")
	}
}
