package mathutil

import (
	"fmt"
	"math"
)

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// EulerOrder names the order in which per-axis rotations are applied.
// "YZX" rotates around Y first, then Z, then X.
type EulerOrder string

const (
	OrderXYZ EulerOrder = "XYZ"
	OrderXZY EulerOrder = "XZY"
	OrderYXZ EulerOrder = "YXZ"
	OrderYZX EulerOrder = "YZX"
	OrderZXY EulerOrder = "ZXY"
	OrderZYX EulerOrder = "ZYX"
)

// Valid reports whether o is one of the six axis orders.
func (o EulerOrder) Valid() bool {
	switch o {
	case OrderXYZ, OrderXZY, OrderYXZ, OrderYZX, OrderZXY, OrderZYX:
		return true
	}
	return false
}

// EulerMat3 builds the rotation matrix for angles (x, y, z) in radians,
// applied in the given order.
func EulerMat3(angles Vec3, order EulerOrder) (Mat3, error) {
	if !order.Valid() {
		return Mat3{}, fmt.Errorf("euler: unknown axis order %q", order)
	}
	m := Mat3Identity()
	for _, axis := range order {
		var r Mat3
		switch axis {
		case 'X':
			r = RotX(angles[0])
		case 'Y':
			r = RotY(angles[1])
		case 'Z':
			r = RotZ(angles[2])
		}
		m = Mat3Mul(r, m)
	}
	return m, nil
}

// EulerQuat is EulerMat3 followed by QuatFromMat3.
func EulerQuat(angles Vec3, order EulerOrder) (Quat, error) {
	m, err := EulerMat3(angles, order)
	if err != nil {
		return Quat{}, err
	}
	return QuatFromMat3(m), nil
}
