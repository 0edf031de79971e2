package common

// AABB is an axis-aligned bounding box in model or world space.
type AABB struct {
	// Min is the minimum corner.
	Min [3]float32

	// Max is the maximum corner.
	Max [3]float32
}

// NewAABB returns an empty box positioned so that the first Extend call
// initializes both corners.
//
// Returns:
//   - AABB: an inverted box (Min at +inf, Max at -inf per axis)
func NewAABB() AABB {
	const big = float32(3.4e38)
	return AABB{
		Min: [3]float32{big, big, big},
		Max: [3]float32{-big, -big, -big},
	}
}

// Extend grows the box to contain the point p.
//
// Parameters:
//   - p: the point to include
func (b *AABB) Extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union grows the box to contain another box.
//
// Parameters:
//   - other: the box to include
func (b *AABB) Union(other AABB) {
	b.Extend(other.Min)
	b.Extend(other.Max)
}

// Center returns the midpoint of the box.
//
// Returns:
//   - [3]float32: the center point
func (b AABB) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// Size returns the extent of the box along each axis.
//
// Returns:
//   - [3]float32: per-axis size
func (b AABB) Size() [3]float32 {
	return [3]float32{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// MaxDimension returns the largest extent across the three axes.
//
// Returns:
//   - float32: the largest of the per-axis sizes
func (b AABB) MaxDimension() float32 {
	s := b.Size()
	m := s[0]
	if s[1] > m {
		m = s[1]
	}
	if s[2] > m {
		m = s[2]
	}
	return m
}

// Valid reports whether the box contains at least one point, i.e. Extend
// or Union has been called since NewAABB.
//
// Returns:
//   - bool: true if Min <= Max on every axis
func (b AABB) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}
