package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// decoder walks one input buffer. It carries no position state: every step
// takes the cursor it starts at and returns the cursor just past what it read.
type decoder struct {
	buf  []byte
	opts *decodeOptions
}

// DecodeAt decodes the single value that starts at pos and returns it with
// the offset of the first byte after it. buf is never modified and is copied
// only for string payloads.
//
// Example:
//
//	node, next, err := app.DecodeAt([]byte("i52e5:hello"), 0) // 52, 4
//	node, next, err = app.DecodeAt([]byte("i52e5:hello"), next) // "hello", 11
func DecodeAt(buf []byte, pos int, opts ...Option) (BNode, int, error) {
	if pos < 0 || pos > len(buf) {
		return BNode{}, pos, &SyntaxError{Offset: pos, Err: ErrUnexpectedEOF, Detail: "cursor outside input"}
	}

	d := decoder{buf: buf, opts: buildOptions(opts)}
	node, next, err := d.decodeValue(pos, 0)
	if err != nil {
		d.opts.logger.Printf("decode failed: %v", err)
		return BNode{}, pos, err
	}
	return *node, next, nil
}

// DecodeBencode decodes buf as exactly one bencoded value. Bytes left over
// after that value are an error.
func DecodeBencode(buf []byte, opts ...Option) (BNode, error) {
	node, next, err := DecodeAt(buf, 0, opts...)
	if err != nil {
		return BNode{}, err
	}
	if next != len(buf) {
		return BNode{}, &SyntaxError{
			Offset: next,
			Err:    ErrTrailingData,
			Detail: fmt.Sprintf("%d bytes left", len(buf)-next),
		}
	}
	return node, nil
}

// decodeValue dispatches on the tag byte at pos. depth is the number of
// lists and dictionaries already open around pos.
func (d *decoder) decodeValue(pos, depth int) (*BNode, int, error) {
	if pos >= len(d.buf) {
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrUnexpectedEOF, Detail: "expected a value"}
	}

	switch c := d.buf[pos]; {
	case isDigit(c):
		return d.decodeBencodeString(pos)
	case c == 'i':
		return d.decodeBencodeInt(pos)
	case c == 'l':
		return d.decodeBencodeList(pos, depth+1)
	case c == 'd':
		return d.decodeBencodeDict(pos, depth+1)
	default:
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrUnrecognizedTag, Detail: fmt.Sprintf("%q", c)}
	}
}

// decodeBencodeString reads <length>:<payload>.
func (d *decoder) decodeBencodeString(pos int) (*BNode, int, error) {
	colon := pos
	for colon < len(d.buf) && isDigit(d.buf[colon]) {
		colon++
	}
	if colon >= len(d.buf) || d.buf[colon] != ':' {
		return nil, pos, &SyntaxError{Offset: colon, Err: ErrMissingDelimiter}
	}

	lengthStr := string(d.buf[pos:colon])
	length, err := strconv.ParseUint(lengthStr, 10, 64)
	if err != nil {
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrInvalidLength, Detail: lengthStr}
	}

	start := colon + 1
	if available := uint64(len(d.buf) - start); length > available {
		return nil, pos, &SyntaxError{
			Offset: start,
			Err:    ErrUnexpectedEOF,
			Detail: fmt.Sprintf("string declares %d bytes, %d available", length, available),
		}
	}
	end := start + int(length)

	d.opts.logger.Printf("string at %d: %d bytes", pos, length)
	return NewString(d.buf[start:end]), end, nil
}

// decodeBencodeInt reads i<integer>e. The body is an optional '-' followed by
// at least one digit.
func (d *decoder) decodeBencodeInt(pos int) (*BNode, int, error) {
	endDelimiter := bytes.IndexByte(d.buf[pos+1:], 'e')
	if endDelimiter < 0 {
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrMissingTerminator, Detail: "unterminated integer"}
	}
	body := d.buf[pos+1 : pos+1+endDelimiter]

	digits := body
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return nil, pos, &SyntaxError{Offset: pos + 1, Err: ErrInvalidInteger, Detail: fmt.Sprintf("%q", body)}
	}
	for i, c := range digits {
		if !isDigit(c) {
			return nil, pos, &SyntaxError{
				Offset: pos + 1 + len(body) - len(digits) + i,
				Err:    ErrInvalidInteger,
				Detail: fmt.Sprintf("%q", body),
			}
		}
	}

	i, err := strconv.ParseInt(string(body), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, pos, &SyntaxError{Offset: pos + 1, Err: ErrIntegerOverflow, Detail: string(body)}
		}
		return nil, pos, &SyntaxError{Offset: pos + 1, Err: ErrInvalidInteger, Detail: fmt.Sprintf("%q", body)}
	}

	d.opts.logger.Printf("integer at %d: %d", pos, i)
	return NewInt(i), pos + 1 + endDelimiter + 1, nil
}

// decodeBencodeList reads l<value>*e.
func (d *decoder) decodeBencodeList(pos, depth int) (*BNode, int, error) {
	if depth > d.opts.maxDepth {
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrNestingTooDeep, Detail: fmt.Sprintf("limit is %d", d.opts.maxDepth)}
	}

	r := NewList()
	cur := pos + 1
	for {
		if cur >= len(d.buf) {
			return nil, pos, &SyntaxError{Offset: cur, Err: ErrMissingTerminator, Detail: "unterminated list"}
		}
		if d.buf[cur] == 'e' {
			break
		}

		item, next, err := d.decodeValue(cur, depth)
		if err != nil {
			return nil, pos, err
		}
		r.List = append(r.List, item)
		cur = next
	}

	d.opts.logger.Printf("list at %d: %d elements", pos, len(r.List))
	return r, cur + 1, nil
}

// decodeBencodeDict reads d(<string><value>)*e. A repeated key keeps its first
// position and takes the later value.
func (d *decoder) decodeBencodeDict(pos, depth int) (*BNode, int, error) {
	if depth > d.opts.maxDepth {
		return nil, pos, &SyntaxError{Offset: pos, Err: ErrNestingTooDeep, Detail: fmt.Sprintf("limit is %d", d.opts.maxDepth)}
	}

	r := NewDict()
	cur := pos + 1
	for {
		if cur >= len(d.buf) {
			return nil, pos, &SyntaxError{Offset: cur, Err: ErrMissingTerminator, Detail: "unterminated dictionary"}
		}
		if d.buf[cur] == 'e' {
			break
		}

		key, next, err := d.decodeValue(cur, depth)
		if err != nil {
			return nil, pos, err
		}
		if key.Type != BString {
			return nil, pos, &SyntaxError{Offset: cur, Err: ErrNonStringKey, Detail: "got " + key.Type.String()}
		}
		cur = next

		value, next, err := d.decodeValue(cur, depth)
		if err != nil {
			return nil, pos, err
		}
		cur = next

		if _, dup := r.Dict.Get(string(key.Str)); dup {
			d.opts.logger.Printf("dictionary at %d: duplicate key %q, keeping last value", pos, key.Str)
		}
		r.Dict.Set(string(key.Str), value)
	}

	d.opts.logger.Printf("dictionary at %d: %d keys", pos, r.Dict.Len())
	return r, cur + 1, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// MarshalBNode renders a BNode as JSON. Dictionary keys keep the order in
// which they first appeared. String payloads that are not valid UTF-8 have
// the offending bytes replaced with U+FFFD.
func MarshalBNode(node *BNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBNode(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBNode(buf *bytes.Buffer, node *BNode) error {
	if node == nil {
		return errors.New("cannot marshal nil node")
	}

	switch node.Type {
	case BString:
		return writeJSONString(buf, string(node.Str))

	case BInt:
		buf.WriteString(strconv.FormatInt(node.Int, 10))
		return nil

	case BList:
		buf.WriteByte('[')
		for i, item := range node.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeBNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case BDict:
		buf.WriteByte('{')
		if node.Dict != nil {
			first := true
			for key, value := range node.Dict.AllFromFront() {
				if !first {
					buf.WriteByte(',')
				}
				first = false
				if err := writeJSONString(buf, key); err != nil {
					return err
				}
				buf.WriteByte(':')
				if err := writeBNode(buf, value); err != nil {
					return err
				}
			}
		}
		buf.WriteByte('}')
		return nil

	default:
		return fmt.Errorf("unknown node type: %d", node.Type)
	}
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
	return nil
}
