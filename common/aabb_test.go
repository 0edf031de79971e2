package common

import "testing"

func TestNewAABBInvalid(t *testing.T) {
	b := NewAABB()
	if b.Valid() {
		t.Error("fresh box should not be valid")
	}
}

func TestAABBExtend(t *testing.T) {
	b := NewAABB()
	b.Extend([3]float32{1, 2, 3})
	b.Extend([3]float32{-1, 0, 5})

	if !b.Valid() {
		t.Fatal("box should be valid after Extend")
	}
	if b.Min != [3]float32{-1, 0, 3} {
		t.Errorf("Min = %v, want [-1 0 3]", b.Min)
	}
	if b.Max != [3]float32{1, 2, 5} {
		t.Errorf("Max = %v, want [1 2 5]", b.Max)
	}
}

func TestAABBCenterAndSize(t *testing.T) {
	b := AABB{Min: [3]float32{-1, -2, -3}, Max: [3]float32{1, 2, 3}}
	if b.Center() != [3]float32{0, 0, 0} {
		t.Errorf("Center = %v, want origin", b.Center())
	}
	if b.Size() != [3]float32{2, 4, 6} {
		t.Errorf("Size = %v, want [2 4 6]", b.Size())
	}
	if b.MaxDimension() != 6 {
		t.Errorf("MaxDimension = %f, want 6", b.MaxDimension())
	}
}

func TestAABBUnion(t *testing.T) {
	a := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	a.Union(AABB{Min: [3]float32{-2, 0, 0}, Max: [3]float32{0, 3, 1}})
	if a.Min != [3]float32{-2, 0, 0} || a.Max != [3]float32{1, 3, 1} {
		t.Errorf("Union = %v..%v", a.Min, a.Max)
	}
}
