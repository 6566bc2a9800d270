package math

// Plane is (A, B, C, D) with the inside half-space A*x + B*y + C*z + D >= 0.
type Plane struct {
	Normal Vec3
	D      float32
}

// Frustum holds the six clip planes of a view-projection matrix, in the
// space the matrix transforms from (world space for view*proj).
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromViewProjection extracts the planes of a row-vector
// view-projection matrix. Depth is reverse-Z: the far plane is z' = 0 and
// the near plane z' = w'.
func NewFrustumFromViewProjection(viewProjection Mat4) Frustum {
	m := viewProjection.Data

	col := func(c int) Vec4 {
		return Vec4{X: m[c], Y: m[4+c], Z: m[8+c], W: m[12+c]}
	}

	c0 := col(0)
	c1 := col(1)
	c2 := col(2)
	c3 := col(3)

	add := func(a, b Vec4) Plane {
		return Plane{Normal: Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}, D: a.W + b.W}
	}
	sub := func(a, b Vec4) Plane {
		return Plane{Normal: Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}, D: a.W - b.W}
	}

	var f Frustum
	f.Planes[0] = add(c3, c0)                         // left:   w' + x' >= 0
	f.Planes[1] = sub(c3, c0)                         // right:  w' - x' >= 0
	f.Planes[2] = add(c3, c1)                         // bottom: w' + y' >= 0
	f.Planes[3] = sub(c3, c1)                         // top:    w' - y' >= 0
	f.Planes[4] = Plane{Normal: c2.ToVec3(), D: c2.W} // far:    z' >= 0
	f.Planes[5] = sub(c3, c2)                         // near:   w' - z' >= 0
	return f
}

// IntersectsAABB reports whether the box touches the frustum. The test is
// conservative in the usual way: a box that lies outside the frustum near an
// edge or corner, without lying wholly outside any single plane, still
// passes. The culling compute shader runs the same six-plane test, so CPU
// results predict GPU results exactly.
func (f Frustum) IntersectsAABB(box Extents3D) bool {
	for _, p := range f.Planes {
		// The box corner furthest along the plane normal.
		v := Vec3{X: box.Min.X, Y: box.Min.Y, Z: box.Min.Z}
		if p.Normal.X >= 0 {
			v.X = box.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = box.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = box.Max.Z
		}
		if p.Normal.Dot(v)+p.D < 0 {
			return false
		}
	}
	return true
}

// TransformAABB returns the axis-aligned bounds of the eight transformed
// corners of box.
func TransformAABB(box Extents3D, transform Mat4) Extents3D {
	corners := [8]Vec3{
		{box.Min.X, box.Min.Y, box.Min.Z},
		{box.Max.X, box.Min.Y, box.Min.Z},
		{box.Min.X, box.Max.Y, box.Min.Z},
		{box.Max.X, box.Max.Y, box.Min.Z},
		{box.Min.X, box.Min.Y, box.Max.Z},
		{box.Max.X, box.Min.Y, box.Max.Z},
		{box.Min.X, box.Max.Y, box.Max.Z},
		{box.Max.X, box.Max.Y, box.Max.Z},
	}

	out := Extents3D{
		Min: corners[0].TransformPoint(transform),
		Max: corners[0].TransformPoint(transform),
	}
	for _, c := range corners[1:] {
		p := c.TransformPoint(transform)
		out.Min.X = minf(out.Min.X, p.X)
		out.Min.Y = minf(out.Min.Y, p.Y)
		out.Min.Z = minf(out.Min.Z, p.Z)
		out.Max.X = maxf(out.Max.X, p.X)
		out.Max.Y = maxf(out.Max.Y, p.Y)
		out.Max.Z = maxf(out.Max.Z, p.Z)
	}
	return out
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
