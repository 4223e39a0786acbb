package mathutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func assertQuatRotationEqual(t *testing.T, want, got Quat) {
	t.Helper()
	assert.InDelta(t, 0, want.Angle(got), 1e-6, "want %v, got %v", want, got)
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		axis := Vec3{r.Float64() - 0.5, r.Float64() - 0.5, r.Float64() - 0.5}
		axis = axis.Scale(1 / axis.Len())
		angle := (r.Float64()*2 - 1) * math.Pi
		q := QuatAxisAngle(axis, angle)

		got := QuatFromMat3(q.Mat3())
		assertQuatRotationEqual(t, q, got)
		assert.GreaterOrEqual(t, got[0], 0.0)
	}
}

func TestEulerOrder(t *testing.T) {
	// Y first, then Z, then X: R = Rx · Rz · Ry
	angles := Vec3{0.3, -0.7, 1.1}
	m, err := EulerMat3(angles, OrderYZX)
	require.NoError(t, err)
	want := Mat3Mul(RotX(0.3), Mat3Mul(RotZ(1.1), RotY(-0.7)))
	for i := range m {
		assert.InDelta(t, want[i], m[i], tol)
	}

	_, err = EulerMat3(angles, EulerOrder("XXY"))
	assert.Error(t, err)
}

func TestQuatMulMatchesMatrixProduct(t *testing.T) {
	a := QuatAxisAngle(Vec3{1, 0, 0}, Deg2Rad(-90))
	b := QuatAxisAngle(Vec3{0, 0, 1}, Deg2Rad(30))
	got := QuatFromMat3(a.Mul(b).Mat3())
	want := QuatFromMat3(Mat3Mul(a.Mat3(), b.Mat3()))
	assertQuatRotationEqual(t, want, got)
}

func TestDecompose(t *testing.T) {
	rot := QuatAxisAngle(Vec3{0, 1, 0}, Deg2Rad(40))
	rm := rot.Mat3()
	scale := Vec3{2, 3, 0.5}
	var v [12]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v[r*4+c] = rm[r*3+c] * scale[c]
		}
	}
	v[3], v[7], v[11] = 10, -20, 30

	m, err := Mat4FromAffine(v[:])
	require.NoError(t, err)
	loc, q, s := m.Decompose()

	assert.Equal(t, Vec3{10, -20, 30}, loc)
	assertQuatRotationEqual(t, rot, q)
	for i := range s {
		assert.InDelta(t, scale[i], s[i], tol)
	}

	_, err = Mat4FromAffine(v[:11])
	assert.Error(t, err)
}

func TestDecomposeNegativeDeterminant(t *testing.T) {
	m, err := Mat4FromAffine([]float64{
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})
	require.NoError(t, err)
	_, q, s := m.Decompose()

	assert.Equal(t, Vec3{-1, -1, -1}, s)
	// diag(-1,1,1) = -I · diag(1,-1,-1), a half turn around X
	assertQuatRotationEqual(t, QuatAxisAngle(Vec3{1, 0, 0}, math.Pi), q)
}

func TestQuatTrackNeverFlips(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	var track QuatTrack

	q := QuatIdentity
	prev := Quat{}
	for i := 0; i < 500; i++ {
		// Step by less than 90° each sample, then hand the resolver a randomly
		// signed copy of the true orientation.
		axis := Vec3{r.Float64() - 0.5, r.Float64() - 0.5, r.Float64() - 0.5}
		axis = axis.Scale(1 / axis.Len())
		q = QuatAxisAngle(axis, r.Float64()*Deg2Rad(89)).Mul(q).Normalize()
		in := q
		if r.Intn(2) == 0 {
			in = in.Neg()
		}

		out := track.Next(in)
		assertQuatRotationEqual(t, q, out)
		if i > 0 {
			assert.GreaterOrEqual(t, prev.Dot(out), 0.0, "sample %d flipped", i)
		}
		prev = out
	}
}

func TestQuatTrackReset(t *testing.T) {
	var track QuatTrack
	track.Next(QuatIdentity)
	assert.Equal(t, QuatIdentity, track.Next(QuatIdentity.Neg()))

	track.Reset()
	assert.Equal(t, QuatIdentity.Neg(), track.Next(QuatIdentity.Neg()))
}

func TestRationalApprox(t *testing.T) {
	tests := []struct {
		x    float64
		p, q int64
	}{
		{1.5, 3, 2},
		{1, 1, 1},
		{0.9, 9, 10},
		{10.0 / 11.0, 10, 11},
		{4.0 / 3.0, 4, 3},
		{2, 2, 1},
		{math.Pi, 355, 113},
	}
	for _, tt := range tests {
		p, q := RationalApprox(tt.x, 1000)
		assert.Equal(t, tt.p, p, "x=%v", tt.x)
		assert.Equal(t, tt.q, q, "x=%v", tt.x)
	}
}
