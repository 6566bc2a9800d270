package vulkan

import "github.com/spaghettifunk/vetro/engine/renderer/metadata"

// Byte strides of the indirect records, fixed by the wire format.
const (
	indirectCommandStride = metadata.IndirectCommandSize
	indirectDrawArgsShift = metadata.IndirectDrawArgsOffset
	cullInputStride       = metadata.CullInputSize
)

const (
	// Capacity of the two view-slot heaps backing render-target and
	// depth-stencil views.
	maxRenderTargetViews uint32 = 1024
	maxDepthStencilViews uint32 = 1024

	// Capacity of the shader-visible heap the root layout indexes directly.
	bindlessHeapCapacity uint32 = 1_000_000

	// Constant buffers are 256-byte slices of mapped blocks. The first block
	// is small; later blocks are allocated in bulk.
	constantBufferSize          = 256
	constantBufferBlockSize     = 256
	constantBufferBulkBlockSize = 2048

	// Staging pools are fixed 32 MiB regions; anything larger spills into a
	// dedicated buffer released when its submission retires.
	uploadPoolCapacity uint64 = 32 * 1024 * 1024

	maxMeshCount     uint32 = 8 * 1024
	maxMaterialCount uint32 = 1024

	// Upper bound of indirect draw records per frame; sizes the writable
	// argument buffers and the GPU output buffer.
	maxIndirectCommands uint32 = 4096

	// Line overlay capacity per writable mesh.
	maxLineVertices uint32 = 16 * 1024
	maxLineIndices  uint32 = 32 * 1024

	// Thread-group size of the culling compute shader.
	cullGroupSize uint32 = 256

	maxSwapchainImages = 8

	// Host frames that may be in flight before the CPU waits.
	framesInFlight = 2

	// Push-constant block: sixteen 32-bit values shared by every pipeline.
	pushConstantCount = 16
	pushConstantBytes = pushConstantCount * 4
)

// Push-constant slots of the graphics pipelines. The per-draw indices
// (vbuffer, ibuffer, transform, texture) travel inside the indirect records;
// the lighting shaders recover them from the surviving-record buffer via the
// draw's first-instance value, so the camera slot at offset 0 stays intact
// across draws.
const (
	pushSlotCameraCBV   = 0
	pushSlotRecordsSRV  = 1
	pushSlotLineVBuffer = 1
	pushSlotLineIBuffer = 2
)

// Push-constant slots of the culling compute pipeline. The camera slot lets
// the shader rebuild the frustum from the view-projection matrix.
const (
	pushSlotCullInputSRV  = 0
	pushSlotCullInCount   = 1
	pushSlotCullOutputUAV = 2
	pushSlotCullCountUAV  = 3
	pushSlotCullCameraCBV = 4
)

// Heap ids embedded in debug descriptor metadata.
const (
	heapIDRenderTarget uint16 = 1
	heapIDDepthStencil uint16 = 2
	heapIDBindless     uint16 = 3
)
