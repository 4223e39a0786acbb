package mathutil

import (
	"fmt"

	"golang.org/x/image/math/f64"
)

// Mat4 is a 4×4 matrix stored row-major. Translation lives in m[3], m[7], m[11].
type Mat4 f64.Mat4

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4FromAffine builds a 4×4 matrix from the 12 values of a row-major 3×4
// affine matrix. The bottom row is always (0, 0, 0, 1).
func Mat4FromAffine(v []float64) (Mat4, error) {
	if len(v) != 12 {
		return Mat4{}, fmt.Errorf("affine matrix: want 12 values, got %d", len(v))
	}
	return Mat4{
		v[0], v[1], v[2], v[3],
		v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11],
		0, 0, 0, 1,
	}, nil
}

// Upper3 returns the upper-left 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// Decompose splits an affine matrix into translation, rotation and scale.
// A negative determinant is folded into the scale (all axes negated), the
// same way the destination host decomposes matrices.
func (m Mat4) Decompose() (loc Vec3, rot Quat, scale Vec3) {
	loc = m.Translation()

	r := m.Upper3()
	for c := 0; c < 3; c++ {
		col := r.Col(c)
		l := col.Len()
		scale[c] = l
		if l > 1e-12 {
			r.SetCol(c, col.Scale(1/l))
		}
	}
	if r.Det() < 0 {
		for i := range r {
			r[i] = -r[i]
		}
		scale = scale.Scale(-1)
	}

	return loc, QuatFromMat3(r), scale
}
