package ast

import "testing"

func TestCanConvertScalars(t *testing.T) {
	tests := []struct {
		src, dst TypeClass
		want     bool
	}{
		{TypeInteger, TypeInteger, true},
		{TypeInteger, TypeReal, true},
		{TypeReal, TypeInteger, true},
		{TypeReal, TypeReal, true},
		{TypeInteger, TypeBoolean, false},
		{TypeBoolean, TypeBoolean, true},
		{TypeBoolean, TypeInteger, false},
		{TypeString, TypeWave, true},
		{TypeWave, TypeWave, true},
		{TypeWave, TypeReal, false},
		{TypeInteger, TypeVector, true},
		{TypeReal, TypeVector, true},
		{TypeVector, TypeVector, true},
		{TypeWave, TypeVector, false},
		{TypeInteger, TypeVoid, false},
		{TypeVoid, TypeInteger, false},
		{TypeUndefined, TypeReal, false},
	}
	for _, tt := range tests {
		if got := CanConvert(Simple(tt.src), Simple(tt.dst)); got != tt.want {
			t.Errorf("CanConvert(%v, %v) = %v, want %v", tt.src, tt.dst, got, tt.want)
		}
	}
}

func TestCanConvertArrays(t *testing.T) {
	a34 := ArrayType(TypeReal, []int{3, 4})
	b34 := ArrayType(TypeReal, []int{3, 4})
	c94 := ArrayType(TypeReal, []int{9, 4})
	d35 := ArrayType(TypeReal, []int{3, 5})
	i34 := ArrayType(TypeInteger, []int{3, 4})
	q4 := ArrayType(TypeReal, []int{0, 4})

	if !CanConvert(a34, b34) {
		t.Error("identical arrays must convert")
	}
	if !CanConvert(c94, a34) {
		t.Error("leading dimension is a wildcard for conversion")
	}
	if !CanConvert(a34, q4) {
		t.Error("arrays must convert to '?'-leading parameter arrays")
	}
	if CanConvert(d35, a34) {
		t.Error("trailing dimensions must match")
	}
	if CanConvert(i34, a34) {
		t.Error("element types must match")
	}
	if CanConvert(Simple(TypeReal), a34) {
		t.Error("scalars do not convert to arrays")
	}
}

func TestTypeEqual(t *testing.T) {
	if !Simple(TypeReal).Equal(Simple(TypeReal)) {
		t.Error("real == real")
	}
	if Simple(TypeReal).Equal(Simple(TypeInteger)) {
		t.Error("real != integer")
	}
	a := ArrayType(TypeReal, []int{3, 4})
	b := ArrayType(TypeReal, []int{9, 4})
	if a.Equal(b) {
		t.Error("array equality requires every dimension to match")
	}
}
