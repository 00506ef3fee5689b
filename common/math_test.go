package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvert4RoundTrip(t *testing.T) {
	m := make([]float32, 16)
	Translation(m, 1, 2, 3)
	rot := make([]float32, 16)
	Quat{W: 0.9, X: 0.1, Y: 0.3, Z: -0.2}.Mat4(rot)
	Mul4(m, m, rot)

	inv := make([]float32, 16)
	require.True(t, Invert4(inv, m))

	product := make([]float32, 16)
	Mul4(product, m, inv)
	identity := make([]float32, 16)
	Identity(identity)
	assert.InDeltaSlice(t, identity, product, 1e-5)
}

func TestInvert4Singular(t *testing.T) {
	out := []float32{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7}
	zero := make([]float32, 16)
	assert.False(t, Invert4(out, zero))
	assert.Equal(t, float32(7), out[0])
}

func TestMulVec4AppliesTranslation(t *testing.T) {
	m := make([]float32, 16)
	Translation(m, 1, -2, 5)
	got := MulVec4(m, [4]float32{1, 1, 1, 1})
	assert.Equal(t, [4]float32{2, -1, 6, 1}, got)

	direction := MulVec4(m, [4]float32{1, 0, 0, 0})
	assert.Equal(t, [4]float32{1, 0, 0, 0}, direction)
}

func TestQuatRotatesAroundZ(t *testing.T) {
	half := math32.Pi / 4
	q := Quat{W: math32.Cos(half), Z: math32.Sin(half)}
	m := make([]float32, 16)
	q.Mat4(m)

	v := MulVec4(m, [4]float32{1, 0, 0, 0})
	assert.InDelta(t, 0, v[0], 1e-6)
	assert.InDelta(t, 1, v[1], 1e-6)
}

func TestQuatIdentityIsNeutral(t *testing.T) {
	q := Quat{W: 0.5, X: 0.5, Y: -0.5, Z: 0.5}
	assert.Equal(t, q, QuatIdentity().Mul(q))
	assert.Equal(t, q, q.Mul(QuatIdentity()))
}

func TestOpenGLToWGPUMapsDepthRange(t *testing.T) {
	near := MulVec4(OpenGLToWGPU[:], [4]float32{0, 0, -1, 1})
	far := MulVec4(OpenGLToWGPU[:], [4]float32{0, 0, 1, 1})
	assert.InDelta(t, 0, near[2], 1e-6)
	assert.InDelta(t, 1, far[2], 1e-6)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(3, -1, 1))
	assert.Equal(t, float32(-1), Clamp(-3, -1, 1))
	assert.Equal(t, float32(0.5), Clamp(0.5, -1, 1))
}
