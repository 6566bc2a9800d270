package testbed

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/vetro/engine/containers"
	"github.com/spaghettifunk/vetro/engine/core"
	vmath "github.com/spaghettifunk/vetro/engine/math"
	"github.com/spaghettifunk/vetro/engine/platform"
	"github.com/spaghettifunk/vetro/engine/renderer"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

// Game drives the renderer with procedural content: a grid of cubes with
// generated checker materials, an orbiting camera, and an AABB wireframe
// overlay.
type Game struct {
	config   Config
	platform *platform.Platform
	renderer *renderer.Renderer

	clock *core.Clock

	cube      metadata.Mesh
	cubeAABB  vmath.Extents3D
	materials []metadata.Material
	instances []metadata.RenderInstance

	pendingUploads *containers.RingQueue[metadata.UploadTicket]
	contentReady   bool

	angle float32
}

func NewGame(config Config, p *platform.Platform, r *renderer.Renderer) *Game {
	return &Game{
		config:         config,
		platform:       p,
		renderer:       r,
		clock:          core.NewClock(),
		pendingUploads: containers.NewRingQueue[metadata.UploadTicket](16),
	}
}

// LoadShaderBlobs reads the compiled SPIR-V modules the renderer consumes.
func LoadShaderBlobs(dir string) (metadata.ShaderBlobs, error) {
	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("shader blob %s: %w", name, err)
		}
		return data, nil
	}

	var blobs metadata.ShaderBlobs
	var err error
	if blobs.LightingVertex, err = read("lighting.vert.spv"); err != nil {
		return blobs, err
	}
	if blobs.LightingFragment, err = read("lighting.frag.spv"); err != nil {
		return blobs, err
	}
	if blobs.LineVertex, err = read("line.vert.spv"); err != nil {
		return blobs, err
	}
	if blobs.LineFragment, err = read("line.frag.spv"); err != nil {
		return blobs, err
	}
	if blobs.CullingCompute, err = read("culling.comp.spv"); err != nil {
		return blobs, err
	}
	return blobs, nil
}

// Boot uploads the demo content in one batch and queues its ticket; frames
// render empty until the copy queue reports the ticket finished.
func (g *Game) Boot() error {
	ctx, err := g.renderer.OpenUploadContext()
	if err != nil {
		return err
	}

	cubeConfig := CubeMesh()
	g.cubeAABB = cubeConfig.AABB
	g.cube, err = g.renderer.NewMesh(ctx, cubeConfig)
	if err != nil {
		return err
	}

	materialCount := 6
	for i := 0; i < materialCount; i++ {
		w, h, pixels := CheckerTexture(64, float64(i)*(360.0/float64(materialCount)))
		material, err := g.renderer.NewMaterial(ctx, w, h, pixels)
		if err != nil {
			return err
		}
		g.materials = append(g.materials, material)
	}

	ticket, err := g.renderer.SubmitUploadContext(ctx)
	if err != nil {
		return err
	}
	if err := g.pendingUploads.Enqueue(ticket); err != nil {
		return err
	}

	grid := g.config.GridSize
	spacing := float32(1.8)
	offset := float32(grid-1) * spacing * 0.5
	for x := 0; x < grid; x++ {
		for z := 0; z < grid; z++ {
			translation := vmath.NewMat4Translation(vmath.NewVec3(
				float32(x)*spacing-offset,
				0,
				float32(z)*spacing-offset))
			g.instances = append(g.instances, metadata.RenderInstance{
				Mesh:      g.cube,
				Material:  g.materials[(x+z)%len(g.materials)],
				Transform: translation,
			})
		}
	}

	// One instance keeps the default material on purpose.
	if len(g.instances) > 0 {
		g.instances[0].Material = g.renderer.DefaultMaterial()
	}

	g.clock.Start()
	core.LogInfo("testbed booted: %d instances, %d materials", len(g.instances), len(g.materials))
	return nil
}

// updateUploads drains finished tickets; content becomes drawable once the
// queue is empty. Resources must not hit the direct queue before that.
func (g *Game) updateUploads() {
	for !g.pendingUploads.IsEmpty() {
		ticket, err := g.pendingUploads.Peek()
		if err != nil {
			return
		}
		if !g.renderer.UploadFinished(ticket) {
			return
		}
		g.pendingUploads.Dequeue()
	}
	if !g.contentReady {
		g.contentReady = true
		core.LogInfo("content uploads finished")
	}
}

// Frame advances the orbit camera and renders one frame.
func (g *Game) Frame(deltaSeconds float32) error {
	g.updateUploads()

	g.angle += deltaSeconds * 0.5
	radius := float32(g.config.GridSize) * 2.2
	eye := vmath.NewVec3(
		radius*cos32(g.angle),
		radius*0.6,
		radius*sin32(g.angle))

	view := vmath.NewMat4LookAt(eye, vmath.NewVec3Zero(), vmath.NewVec3(0, 1, 0))

	frame := &metadata.FrameData{
		Camera: metadata.Camera{
			Transform: view.Inverse(),
			NearPlane: 0.1,
			FarPlane:  100.0,
			FOV:       vmath.Pi32 / 2,
		},
	}

	if g.contentReady {
		frame.Queue = g.instances

		// Wireframe overlay around every instance.
		for _, instance := range g.instances {
			vertices, indices := BoxLines(g.cubeAABB, instance.Transform)
			base := uint32(len(frame.LineVertices))
			frame.LineVertices = append(frame.LineVertices, vertices...)
			for _, index := range indices {
				frame.LineIndices = append(frame.LineIndices, base+index)
			}
		}
		frame.NumLineVertices = uint32(len(frame.LineVertices))
		frame.NumLineIndices = uint32(len(frame.LineIndices))
	}

	return g.renderer.RenderFrame(frame)
}

func cos32(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

// Shutdown frees the demo content before the backend goes down.
func (g *Game) Shutdown() {
	if g.renderer.MeshAlive(g.cube) {
		g.renderer.FreeMesh(g.cube)
	}
	for _, material := range g.materials {
		if g.renderer.MaterialAlive(material) {
			g.renderer.FreeMaterial(material)
		}
	}
}
