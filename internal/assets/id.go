package assets

import "fmt"

// Kind identifies the type of asset an ID refers to.
type Kind uint8

// Asset kinds.
const (
	KindInvalid Kind = iota
	KindModel
	KindShader
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindShader:
		return "shader"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ID identifies an asset within a Store. The zero value is InvalidID.
type ID struct {
	Kind Kind
	Num  uint64
}

// InvalidID is returned by failed loads.
var InvalidID = ID{}

// Valid reports whether the ID refers to a real asset kind.
func (id ID) Valid() bool {
	return id.Kind != KindInvalid
}

// String returns "kind:num", e.g. "model:3".
func (id ID) String() string {
	return fmt.Sprintf("%s:%d", id.Kind, id.Num)
}
