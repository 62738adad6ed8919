// Package ast holds the typed program representation built by the
// parser, decorated by the validator, and walked by the code
// generator. The tree is strictly owned top-down; symbol resolution
// stores non-owning pointers back into declarations.
package ast

import "sonic/internal/scan"

// MaxChannels bounds the channel count of a program.
const MaxChannels = 64

// MaxArrayDims bounds the rank of an array type.
const MaxArrayDims = 4

type TypeClass int

const (
	TypeUndefined TypeClass = iota
	TypeVoid
	TypeInteger
	TypeReal
	TypeBoolean
	TypeWave
	TypeString
	TypeVector
	TypeImport
	TypeArray
)

func (tc TypeClass) String() string {
	switch tc {
	case TypeVoid:
		return "void"
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeBoolean:
		return "boolean"
	case TypeWave:
		return "wave"
	case TypeString:
		return "string"
	case TypeVector:
		return "vector"
	case TypeImport:
		return "import"
	case TypeArray:
		return "array"
	}
	return "undefined"
}

// Type describes a Sonic type. ImportName is set only for import
// types; Elem and Dims only for arrays. A dimension of 0 stands for
// the '?' wildcard allowed as the leading dimension of a function
// parameter. Reference is meaningful only on function parameters.
type Type struct {
	Class      TypeClass
	ImportName *scan.Token
	Elem       TypeClass
	Dims       []int
	Reference  bool
}

func Simple(tc TypeClass) Type { return Type{Class: tc} }

func ImportType(name scan.Token) Type {
	n := name
	return Type{Class: TypeImport, ImportName: &n}
}

func ArrayType(elem TypeClass, dims []int) Type {
	return Type{Class: TypeArray, Elem: elem, Dims: dims}
}

func (t Type) Is(tc TypeClass) bool { return t.Class == tc }

func (t Type) IsNumeric() bool {
	return t.Class == TypeInteger || t.Class == TypeReal
}

// Equal is structural: import types compare by name, arrays by element
// type and every dimension.
func (t Type) Equal(other Type) bool {
	if t.Class != other.Class {
		return false
	}
	if t.Class == TypeImport {
		return t.ImportName != nil && other.ImportName != nil &&
			t.ImportName.Lexeme == other.ImportName.Lexeme
	}
	if t.Class == TypeArray {
		if t.Elem != other.Elem || len(t.Dims) != len(other.Dims) {
			return false
		}
		for i := range t.Dims {
			if t.Dims[i] != other.Dims[i] {
				return false
			}
		}
	}
	return true
}

// CanConvert reports whether a value of type src may appear where dst
// is required. Integers and reals interconvert; strings convert to
// waves (filenames); numerics convert to vectors (replicated across
// channels). Arrays convert when the element types match and every
// dimension past the first matches: the leading-dimension wildcard
// exists solely so arrays of differing leading length can be passed to
// functions.
func CanConvert(src, dst Type) bool {
	if dst.Class == TypeVoid || dst.Class == TypeUndefined {
		return false
	}
	if src.Class == TypeVoid || src.Class == TypeUndefined {
		return false
	}
	switch dst.Class {
	case TypeReal, TypeInteger:
		return src.IsNumeric()
	case TypeWave:
		return src.Class == TypeWave || src.Class == TypeString
	case TypeVector:
		return src.Class == TypeVector || src.IsNumeric()
	case TypeArray:
		if src.Class != TypeArray {
			return false
		}
		if src.Elem != dst.Elem || len(src.Dims) != len(dst.Dims) {
			return false
		}
		for i := 1; i < len(dst.Dims); i++ {
			if src.Dims[i] != dst.Dims[i] {
				return false
			}
		}
		return true
	}
	return src.Class == dst.Class && src.Equal(dst)
}
