package common

import (
	"github.com/chewxy/math32"
)

// OpenGLToWGPU remaps OpenGL clip-space depth [-1, 1] onto the WebGPU range [0, 1].
// Stored column-major like every other matrix in this package.
var OpenGLToWGPU = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Translation writes a translation matrix for (x, y, z) into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - x, y, z: translation along each axis
func Translation(out []float32, x, y, z float32) {
	Identity(out)
	out[12], out[13], out[14] = x, y, z
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// MulVec4 multiplies the column-major matrix m by the column vector v.
//
// Parameters:
//   - m: the matrix (16 elements)
//   - v: the vector
//
// Returns:
//   - [4]float32: m * v
func MulVec4(m []float32, v [4]float32) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*v[0] + m[4+row]*v[1] + m[8+row]*v[2] + m[12+row]*v[3]
	}
	return out
}

// PerspectiveGL creates a right-handed perspective projection matrix that maps depth into the
// OpenGL clip range [-1, 1]. Combine with OpenGLToWGPU before handing it to WebGPU.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func PerspectiveGL(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / math32.Tan(fovY/2.0)
	for i := range out[:16] {
		out[i] = 0
	}
	out[0] = f / aspect
	out[5] = f
	out[10] = (far + near) / (near - far)
	out[11] = -1.0
	out[14] = (2 * far * near) / (near - far)
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular (determinant ≈ 0) the
// output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if math32.Abs(det) < 1e-12 {
		return false
	}

	invDet := 1.0 / det
	var buf [16]float32

	buf[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	buf[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	buf[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	buf[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	buf[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	buf[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	buf[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	buf[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	buf[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	buf[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	buf[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	buf[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	buf[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	buf[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	buf[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	buf[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	copy(out, buf[:])
	return true
}

// Quat is a rotation quaternion with scalar part W.
type Quat struct {
	W, X, Y, Z float32
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Len returns the quaternion magnitude.
func (q Quat) Len() float32 {
	return math32.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Mat4 writes the rotation matrix of q into out. q does not need to be normalized.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func (q Quat) Mat4(out []float32) {
	l := q.Len()
	if l == 0 {
		Identity(out)
		return
	}
	w, x, y, z := q.W/l, q.X/l, q.Y/l, q.Z/l

	out[0] = 1 - 2*(y*y+z*z)
	out[1] = 2 * (x*y + w*z)
	out[2] = 2 * (x*z - w*y)
	out[3] = 0

	out[4] = 2 * (x*y - w*z)
	out[5] = 1 - 2*(x*x+z*z)
	out[6] = 2 * (y*z + w*x)
	out[7] = 0

	out[8] = 2 * (x*z + w*y)
	out[9] = 2 * (y*z - w*x)
	out[10] = 1 - 2*(x*x+y*y)
	out[11] = 0

	out[12], out[13], out[14], out[15] = 0, 0, 0, 1
}

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}
