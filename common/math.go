// package common contains plain data types and math helpers shared across the
// engine. Matrices are flat float32 slices in column-major order.
package common

import "math"

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order. Result: out = a * b.
// out may alias a or b.
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

// Perspective creates a perspective projection matrix targeting the
// WebGPU clip space convention of depth in [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// LookAt creates a view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eyeX, eyeY, eyeZ: camera position in world space
//   - centerX, centerY, centerZ: target point the camera looks at
//   - upX, upY, upZ: up vector (typically 0,1,0)
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	z0 := eyeX - centerX
	z1 := eyeY - centerY
	z2 := eyeZ - centerZ
	val := float64(z0*z0 + z1*z1 + z2*z2)
	if val == 0 {
		val = 1
	}
	invLen := 1.0 / float32(math.Sqrt(val))
	z0 *= invLen
	z1 *= invLen
	z2 *= invLen

	x0 := upY*z2 - upZ*z1
	x1 := upZ*z0 - upX*z2
	x2 := upX*z1 - upY*z0
	val = float64(x0*x0 + x1*x1 + x2*x2)
	if val == 0 {
		val = 1
	}
	invLen = 1.0 / float32(math.Sqrt(val))
	x0 *= invLen
	x1 *= invLen
	x2 *= invLen

	y0 := z1*x2 - z2*x1
	y1 := z2*x0 - z0*x2
	y2 := z0*x1 - z1*x0

	out[0], out[4], out[8], out[12] = x0, x1, x2, -(x0*eyeX + x1*eyeY + x2*eyeZ)
	out[1], out[5], out[9], out[13] = y0, y1, y2, -(y0*eyeX + y1*eyeY + y2*eyeZ)
	out[2], out[6], out[10], out[14] = z0, z1, z2, -(z0*eyeX + z1*eyeY + z2*eyeZ)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler
// rotation (Y * X * Z order), and scale. Column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - posX, posY, posZ: translation in world space
//   - rotX, rotY, rotZ: rotation angles in radians around each axis
//   - scaleX, scaleY, scaleZ: scale factors along each axis
func BuildModelMatrix(out []float32, posX, posY, posZ, rotX, rotY, rotZ, scaleX, scaleY, scaleZ float32) {
	cx := float32(math.Cos(float64(rotX)))
	sx := float32(math.Sin(float64(rotX)))
	cy := float32(math.Cos(float64(rotY)))
	sy := float32(math.Sin(float64(rotY)))
	cz := float32(math.Cos(float64(rotZ)))
	sz := float32(math.Sin(float64(rotZ)))

	out[0] = (cy*cz + sy*sx*sz) * scaleX
	out[1] = (cx * sz) * scaleX
	out[2] = (-sy*cz + cy*sx*sz) * scaleX
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scaleY
	out[5] = (cx * cz) * scaleY
	out[6] = (sy*sz + cy*sx*cz) * scaleY
	out[7] = 0

	out[8] = (sy * cx) * scaleZ
	out[9] = (-sx) * scaleZ
	out[10] = (cy * cx) * scaleZ
	out[11] = 0

	out[12] = posX
	out[13] = posY
	out[14] = posZ
	out[15] = 1
}

// ComposeTRS builds a 4x4 column-major matrix from a translation, a unit
// quaternion rotation (x, y, z, w), and a scale. This is the composition
// used when walking a bone hierarchy, where each bone's local transform is
// stored decomposed for keyframe interpolation.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation
//   - r: rotation quaternion (x, y, z, w)
//   - s: scale
func ComposeTRS(out []float32, t [3]float32, r [4]float32, s [3]float32) {
	x, y, z, w := r[0], r[1], r[2], r[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = 2 * (xy + wz) * s[0]
	out[2] = 2 * (xz - wy) * s[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = 2 * (yz + wx) * s[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * s[2]
	out[9] = 2 * (yz - wx) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// Lerp3 linearly interpolates between two 3D vectors.
//
// Parameters:
//   - a, b: endpoints
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [3]float32: the interpolated vector
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Slerp spherically interpolates between two unit quaternions (x, y, z, w).
// Falls back to normalized linear interpolation when the quaternions are
// nearly parallel, and takes the shortest arc by negating b when needed.
//
// Parameters:
//   - a, b: endpoint quaternions
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func Slerp(a, b [4]float32, t float32) [4]float32 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		dot = -dot
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}

	// Nearly parallel: nlerp avoids division by a tiny sin(theta).
	if dot > 0.9995 {
		out := [4]float32{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
			a[3] + (b[3]-a[3])*t,
		}
		return NormalizeQuat(out)
	}

	theta := float32(math.Acos(float64(dot)))
	sinTheta := float32(math.Sin(float64(theta)))
	wa := float32(math.Sin(float64((1-t)*theta))) / sinTheta
	wb := float32(math.Sin(float64(t*theta))) / sinTheta

	return [4]float32{
		a[0]*wa + b[0]*wb,
		a[1]*wa + b[1]*wb,
		a[2]*wa + b[2]*wb,
		a[3]*wa + b[3]*wb,
	}
}

// NormalizeQuat normalizes a quaternion to unit length. A zero quaternion
// is returned as identity.
//
// Parameters:
//   - q: the quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the unit quaternion
func NormalizeQuat(q [4]float32) [4]float32 {
	length := float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
	if length < 1e-8 {
		return [4]float32{0, 0, 0, 1}
	}
	inv := 1.0 / length
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}
