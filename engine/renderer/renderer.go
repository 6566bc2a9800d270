package renderer

import (
	"github.com/spaghettifunk/vetro/engine/platform"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
	"github.com/spaghettifunk/vetro/engine/renderer/vulkan"
)

// Renderer is the public surface of the renderer core. The host owns the
// window and the compiled shader blobs; everything GPU-side lives behind the
// Vulkan backend.
type Renderer struct {
	backend *vulkan.VulkanRenderer
}

// UploadContext is an open copy-queue recording handed to mesh and material
// creation between Open and Submit.
type UploadContext = vulkan.UploadContext

// New initializes the renderer against the host's window. Initialization
// errors are fatal and surfaced to the host; there is nothing to recover.
func New(appName string, p *platform.Platform, blobs metadata.ShaderBlobs) (*Renderer, error) {
	r := &Renderer{
		backend: vulkan.New(p),
	}
	if err := r.backend.Initialize(appName, blobs); err != nil {
		return nil, err
	}
	return r, nil
}

// ReleaseBackend drains the GPU and destroys every backend object.
func (r *Renderer) ReleaseBackend() error {
	return r.backend.Shutdown()
}

// HandleResize rebuilds the size-dependent backend state. Safe to call with
// zero dimensions (minimize); those resizes are ignored.
func (r *Renderer) HandleResize(width, height uint32) error {
	return r.backend.HandleResize(width, height)
}

// RenderFrame draws and presents one frame.
func (r *Renderer) RenderFrame(frame *metadata.FrameData) error {
	return r.backend.RenderFrame(frame)
}

// OpenUploadContext starts recording staging work for the copy queue.
func (r *Renderer) OpenUploadContext() (*UploadContext, error) {
	return r.backend.OpenUploadContext()
}

// SubmitUploadContext submits staged work and returns the ticket to poll.
// Resources created against the context must not be referenced on the
// direct queue until the ticket reports finished.
func (r *Renderer) SubmitUploadContext(ctx *UploadContext) (metadata.UploadTicket, error) {
	return r.backend.SubmitUploadContext(ctx)
}

// UploadFinished polls an upload ticket.
func (r *Renderer) UploadFinished(ticket metadata.UploadTicket) bool {
	return r.backend.UploadFinished(ticket)
}

// FlushUpload blocks until an upload ticket completes.
func (r *Renderer) FlushUpload(ticket metadata.UploadTicket) {
	r.backend.FlushUpload(ticket)
}

// NewMesh records the mesh's staging copies on the upload context and
// returns a generational handle.
func (r *Renderer) NewMesh(ctx *UploadContext, config *metadata.MeshConfig) (metadata.Mesh, error) {
	return r.backend.NewMesh(ctx, config)
}

// FreeMesh releases the mesh after a device flush.
func (r *Renderer) FreeMesh(mesh metadata.Mesh) error {
	return r.backend.FreeMesh(mesh)
}

// MeshAlive reports whether the handle still addresses a live mesh.
func (r *Renderer) MeshAlive(mesh metadata.Mesh) bool {
	return r.backend.MeshAlive(mesh)
}

// NewMaterial creates a base-color texture material from RGBA bytes.
func (r *Renderer) NewMaterial(ctx *UploadContext, width, height uint32, pixels []byte) (metadata.Material, error) {
	return r.backend.NewMaterial(ctx, width, height, pixels)
}

// FreeMaterial releases the material after a device flush.
func (r *Renderer) FreeMaterial(material metadata.Material) error {
	return r.backend.FreeMaterial(material)
}

// MaterialAlive reports whether the handle still addresses a live material.
func (r *Renderer) MaterialAlive(material metadata.Material) bool {
	return r.backend.MaterialAlive(material)
}

// DefaultMaterial is the built-in 1x1 gray material used when an instance
// omits its own.
func (r *Renderer) DefaultMaterial() metadata.Material {
	return r.backend.DefaultMaterial()
}
