package testbed

import (
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	vmath "github.com/spaghettifunk/vetro/engine/math"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
	"golang.org/x/image/draw"
)

// CubeMesh builds a unit cube with per-face normals around the origin.
func CubeMesh() *metadata.MeshConfig {
	type face struct {
		normal  vmath.Vec3
		corners [4]vmath.Vec3
	}

	h := float32(0.5)
	faces := []face{
		{vmath.NewVec3(0, 0, 1), [4]vmath.Vec3{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{vmath.NewVec3(0, 0, -1), [4]vmath.Vec3{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
		{vmath.NewVec3(1, 0, 0), [4]vmath.Vec3{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{vmath.NewVec3(-1, 0, 0), [4]vmath.Vec3{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{vmath.NewVec3(0, 1, 0), [4]vmath.Vec3{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{vmath.NewVec3(0, -1, 0), [4]vmath.Vec3{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
	}

	uvs := [4]vmath.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	config := &metadata.MeshConfig{
		AABB: vmath.Extents3D{
			Min: vmath.NewVec3(-h, -h, -h),
			Max: vmath.NewVec3(h, h, h),
		},
	}

	for _, f := range faces {
		base := uint32(len(config.Vertices))
		for i, corner := range f.corners {
			config.Vertices = append(config.Vertices, vmath.Vertex3D{
				Position: corner,
				Normal:   f.normal,
				Texcoord: uvs[i],
			})
		}
		config.Indices = append(config.Indices,
			base, base+1, base+2,
			base, base+2, base+3)
	}
	return config
}

// CheckerTexture renders an 8x8 checker in a light and a dark shade of the
// given hue and upscales it to size x size RGBA bytes.
func CheckerTexture(size int, hue float64) (uint32, uint32, []byte) {
	light := colorful.Hsv(hue, 0.55, 0.95)
	dark := colorful.Hsv(hue, 0.75, 0.45)

	toColor := func(c colorful.Color) color.RGBA {
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}

	small := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				small.SetRGBA(x, y, toColor(light))
			} else {
				small.SetRGBA(x, y, toColor(dark))
			}
		}
	}

	big := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Src, nil)

	return uint32(size), uint32(size), big.Pix
}

// BoxLines produces the overlay wireframe of an AABB: 8 corner vertices and
// 24 line-list indices.
func BoxLines(box vmath.Extents3D, transform vmath.Mat4) ([]vmath.Vec4, []uint32) {
	corners := [8]vmath.Vec3{
		{box.Min.X, box.Min.Y, box.Min.Z},
		{box.Max.X, box.Min.Y, box.Min.Z},
		{box.Max.X, box.Max.Y, box.Min.Z},
		{box.Min.X, box.Max.Y, box.Min.Z},
		{box.Min.X, box.Min.Y, box.Max.Z},
		{box.Max.X, box.Min.Y, box.Max.Z},
		{box.Max.X, box.Max.Y, box.Max.Z},
		{box.Min.X, box.Max.Y, box.Max.Z},
	}

	vertices := make([]vmath.Vec4, 0, 8)
	for _, c := range corners {
		vertices = append(vertices, c.TransformPoint(transform).ToVec4(1))
	}

	indices := []uint32{
		0, 1, 1, 2, 2, 3, 3, 0, // near face
		4, 5, 5, 6, 6, 7, 7, 4, // far face
		0, 4, 1, 5, 2, 6, 3, 7, // connecting edges
	}
	return vertices, indices
}
