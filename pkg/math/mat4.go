package math

// Mat4 is a 4x4 matrix in column-major order (OpenGL and glTF compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d [3]float32) [3]float32 {
	return [3]float32{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// TransformNormal transforms a surface normal by the inverse-transpose of
// the upper 3x3 block, so normals stay perpendicular under non-uniform
// scale. The result is not normalised. A singular block yields zero.
func (m Mat4) TransformNormal(n [3]float32) [3]float32 {
	// a(r, c) is row r, column c of the 3x3 block.
	a := func(r, c int) float32 { return m[c*4+r] }
	cof := func(r, c int) float32 {
		r1, r2 := (r+1)%3, (r+2)%3
		c1, c2 := (c+1)%3, (c+2)%3
		return a(r1, c1)*a(r2, c2) - a(r1, c2)*a(r2, c1)
	}

	det := a(0, 0)*cof(0, 0) + a(0, 1)*cof(0, 1) + a(0, 2)*cof(0, 2)
	if det == 0 {
		return [3]float32{}
	}

	var out [3]float32
	for r := range 3 {
		out[r] = (cof(r, 0)*n[0] + cof(r, 1)*n[1] + cof(r, 2)*n[2]) / det
	}
	return out
}
