package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

// Descriptor is an index into a DescriptorHeap. The meta word carries the
// owning heap's id and the slot generation so stale or cross-heap use is
// caught at validation time.
type Descriptor struct {
	meta  uint32
	Index uint32
}

// DescriptorHeap is a fixed-capacity generational index allocator. The
// shader-visible bindless table and the render-target/depth view slots all
// allocate their indices from one of these.
type DescriptorHeap struct {
	id          uint16
	capacity    uint32
	freeList    []uint32
	generations []uint16
}

func NewDescriptorHeap(capacity uint32, id uint16) *DescriptorHeap {
	heap := &DescriptorHeap{
		id:          id,
		capacity:    capacity,
		freeList:    make([]uint32, 0, capacity),
		generations: make([]uint16, capacity),
	}
	for i := uint32(0); i < capacity; i++ {
		heap.generations[i] = 1
		heap.freeList = append(heap.freeList, i)
	}
	return heap
}

func (h *DescriptorHeap) FreeCount() int {
	return len(h.freeList)
}

func (h *DescriptorHeap) Alloc() Descriptor {
	if len(h.freeList) == 0 {
		core.LogFatal("descriptor heap %d exhausted (%d slots)", h.id, h.capacity)
	}
	index := h.freeList[len(h.freeList)-1]
	h.freeList = h.freeList[:len(h.freeList)-1]

	return Descriptor{
		meta:  uint32(h.id)<<16 | uint32(h.generations[index]),
		Index: index,
	}
}

func (h *DescriptorHeap) validate(d Descriptor) {
	if d.Index >= h.capacity {
		panic(fmt.Sprintf("descriptor index %d out of range for heap %d", d.Index, h.id))
	}
	if uint16(d.meta>>16) != h.id {
		panic(fmt.Sprintf("descriptor from heap %d used against heap %d", d.meta>>16, h.id))
	}
	if uint16(d.meta&0xFFFF) != h.generations[d.Index] {
		panic(fmt.Sprintf("stale descriptor for slot %d of heap %d", d.Index, h.id))
	}
}

func (h *DescriptorHeap) Free(d Descriptor) {
	h.validate(d)
	h.generations[d.Index]++
	h.freeList = append(h.freeList, d.Index)
}

// Bindings of the bindless descriptor set. All three arrays share the
// bindless heap's index space; a descriptor's index selects the same slot in
// whichever array matches the view type written to it.
const (
	bindlessBindingStorage = 0
	bindlessBindingUniform = 1
	bindlessBindingSampled = 2
)

// BindlessTable is the device half of the bindless heap: one descriptor set
// with large partially-bound arrays, bound once per direct command list and
// indexed by the values the renderer pushes as root constants.
type BindlessTable struct {
	Layout  vk.DescriptorSetLayout
	Pool    vk.DescriptorPool
	Set     vk.DescriptorSet
	sampler vk.Sampler
}

func NewBindlessTable(context *VulkanContext) (*BindlessTable, error) {
	table := &BindlessTable{}

	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         bindlessBindingStorage,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: bindlessHeapCapacity,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit | vk.ShaderStageComputeBit),
		},
		{
			Binding:         bindlessBindingUniform,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: bindlessHeapCapacity,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit | vk.ShaderStageComputeBit),
		},
		{
			Binding:         bindlessBindingSampled,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: bindlessHeapCapacity,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}

	flags := vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit | vk.DescriptorBindingUpdateAfterBindBit)
	bindingFlags := vk.DescriptorSetLayoutBindingFlagsCreateInfo{
		SType:         vk.StructureTypeDescriptorSetLayoutBindingFlagsCreateInfo,
		BindingCount:  uint32(len(bindings)),
		PBindingFlags: []vk.DescriptorBindingFlags{flags, flags, flags},
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		PNext:        vkStructPtr(&bindingFlags),
		Flags:        vk.DescriptorSetLayoutCreateFlags(vk.DescriptorSetLayoutCreateUpdateAfterBindPoolBit),
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create bindless set layout with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	table.Layout = layout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: bindlessHeapCapacity},
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: bindlessHeapCapacity},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: bindlessHeapCapacity},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateUpdateAfterBindBit),
		MaxSets:       1,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create bindless descriptor pool with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	table.Pool = pool

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     table.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{table.Layout},
	}

	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]); res != vk.Success {
		err := fmt.Errorf("failed to allocate the bindless descriptor set with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	table.Set = sets[0]

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		AddressModeU: vk.SamplerAddressModeRepeat,
		AddressModeV: vk.SamplerAddressModeRepeat,
		AddressModeW: vk.SamplerAddressModeRepeat,
		MaxLod:       vk.LodClampNone,
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create the bindless sampler with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	table.sampler = sampler

	core.LogInfo("Bindless table created (%d slots per binding).", bindlessHeapCapacity)
	return table, nil
}

func (t *BindlessTable) Destroy(context *VulkanContext) {
	if t.sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, t.sampler, context.Allocator)
		t.sampler = vk.NullSampler
	}
	if t.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, t.Pool, context.Allocator)
		t.Pool = vk.NullDescriptorPool
	}
	if t.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, t.Layout, context.Allocator)
		t.Layout = vk.NullDescriptorSetLayout
	}
}

func (t *BindlessTable) writeBuffer(context *VulkanContext, binding uint32, d Descriptor, descriptorType vk.DescriptorType, buffer vk.Buffer, offset, size uint64) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: buffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          t.Set,
		DstBinding:      binding,
		DstArrayElement: d.Index,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}

	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteStorageView publishes a structured-buffer view (SRV or UAV) at the
// descriptor's bindless slot.
func (t *BindlessTable) WriteStorageView(context *VulkanContext, d Descriptor, buffer vk.Buffer, offset, size uint64) {
	t.writeBuffer(context, bindlessBindingStorage, d, vk.DescriptorTypeStorageBuffer, buffer, offset, size)
}

// WriteUniformView publishes a constant-buffer view at the descriptor's
// bindless slot.
func (t *BindlessTable) WriteUniformView(context *VulkanContext, d Descriptor, buffer vk.Buffer, offset, size uint64) {
	t.writeBuffer(context, bindlessBindingUniform, d, vk.DescriptorTypeUniformBuffer, buffer, offset, size)
}

// WriteTextureView publishes a sampled texture view at the descriptor's
// bindless slot.
func (t *BindlessTable) WriteTextureView(context *VulkanContext, d Descriptor, view vk.ImageView) {
	imageInfo := vk.DescriptorImageInfo{
		Sampler:     t.sampler,
		ImageView:   view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          t.Set,
		DstBinding:      bindlessBindingSampled,
		DstArrayElement: d.Index,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}

	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}
