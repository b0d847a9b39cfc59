package app

import (
	"unicode/utf8"

	"github.com/elliotchance/orderedmap/v3"
)

// BType defines the type of value stored in BNode.
type BType int

const (
	BString BType = iota
	BInt
	BList
	BDict
)

func (t BType) String() string {
	switch t {
	case BString:
		return "string"
	case BInt:
		return "integer"
	case BList:
		return "list"
	case BDict:
		return "dictionary"
	default:
		return "unknown"
	}
}

// BDictMap holds dictionary entries in the order their keys first appeared.
type BDictMap = orderedmap.OrderedMap[string, *BNode]

// BNode represents a self-referencing structure to hold Bencode values.
//
// Only the field matching Type is meaningful. Str holds raw bytes and is
// never assumed to be valid UTF-8.
type BNode struct {
	Type BType
	Str  []byte
	Int  int64
	List []*BNode
	Dict *BDictMap
}

// NewString returns a string node holding a copy of b.
func NewString(b []byte) *BNode {
	s := make([]byte, len(b))
	copy(s, b)
	return &BNode{Type: BString, Str: s}
}

// NewInt returns an integer node.
func NewInt(i int64) *BNode {
	return &BNode{Type: BInt, Int: i}
}

// NewList returns a list node containing items in order.
func NewList(items ...*BNode) *BNode {
	list := make([]*BNode, 0, len(items))
	list = append(list, items...)
	return &BNode{Type: BList, List: list}
}

// NewDict returns an empty dictionary node.
func NewDict() *BNode {
	return &BNode{Type: BDict, Dict: orderedmap.NewOrderedMap[string, *BNode]()}
}

// Set stores value under key. A key that is already present keeps its
// position and takes the new value.
func (n *BNode) Set(key string, value *BNode) error {
	if n.Type != BDict {
		return &TypeMismatchError{Want: BDict, Got: n.Type}
	}
	n.Dict.Set(key, value)
	return nil
}

// AsBytes returns the raw payload of a string node.
func (n *BNode) AsBytes() ([]byte, error) {
	if n.Type != BString {
		return nil, &TypeMismatchError{Want: BString, Got: n.Type}
	}
	return n.Str, nil
}

// AsString converts the payload of a string node to text. Payloads that are
// not valid UTF-8 are rejected rather than silently mangled.
func (n *BNode) AsString() (string, error) {
	b, err := n.AsBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &TypeMismatchError{Want: BString, Got: n.Type, Reason: "payload is not valid UTF-8"}
	}
	return string(b), nil
}

// AsInt returns the value of an integer node.
func (n *BNode) AsInt() (int64, error) {
	if n.Type != BInt {
		return 0, &TypeMismatchError{Want: BInt, Got: n.Type}
	}
	return n.Int, nil
}

// AsList returns the elements of a list node.
func (n *BNode) AsList() ([]*BNode, error) {
	if n.Type != BList {
		return nil, &TypeMismatchError{Want: BList, Got: n.Type}
	}
	return n.List, nil
}

// AsDict returns the entries of a dictionary node.
func (n *BNode) AsDict() (*BDictMap, error) {
	if n.Type != BDict {
		return nil, &TypeMismatchError{Want: BDict, Got: n.Type}
	}
	return n.Dict, nil
}

// Lookup returns the value stored under key in a dictionary node. The
// boolean is false when the key is absent.
func (n *BNode) Lookup(key string) (*BNode, bool, error) {
	dict, err := n.AsDict()
	if err != nil {
		return nil, false, err
	}
	v, ok := dict.Get(key)
	return v, ok, nil
}
