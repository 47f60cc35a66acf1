package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// uploadToDeviceLocalBuffer stages raw vertex/index bytes through a
// host-visible buffer before copying them into the device-local object
// buffer at the given offset.
func (vr *VulkanRenderer) uploadToDeviceLocalBuffer(target *metadata.RenderBuffer, offset uint64, size uint64, data interface{}) error {
	staging, err := vr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_STAGING, size)
	if err != nil {
		return err
	}
	defer vr.RenderBufferDestroy(staging)

	if err := vr.RenderBufferLoadRange(staging, 0, size, data); err != nil {
		return err
	}

	return vr.RenderBufferCopyRange(staging, 0, target, offset, size)
}

// CreateGeometry uploads a geometry's vertex (and optional index) data into
// the renderer's shared object vertex/index buffers, recording the
// resulting offsets on an internal VulkanGeometryData entry.
func (vr *VulkanRenderer) CreateGeometry(geometry *metadata.Geometry, vertexSize, vertexCount uint32, vertices interface{}, indexSize uint32, indexCount uint32, indices []uint32) error {
	if vertexCount == 0 || vertices == nil {
		return fmt.Errorf("CreateGeometry requires vertex data")
	}

	internal := &VulkanGeometryData{
		ID:                geometry.ID,
		VertexCount:       vertexCount,
		VertexElementSize: vertexSize,
		IndexCount:        indexCount,
		IndexElementSize:  indexSize,
	}

	vertexDataBytes, ok := vertices.([]byte)
	if !ok {
		return fmt.Errorf("CreateGeometry requires vertex data as []byte")
	}

	vertexTotalSize := uint64(vertexSize) * uint64(vertexCount)
	internal.VertexBufferOffset = vr.context.ObjectVertexBuffer.TotalSize
	if err := vr.uploadToDeviceLocalBuffer(vr.context.ObjectVertexBuffer, internal.VertexBufferOffset, vertexTotalSize, vertexDataBytes); err != nil {
		core.LogError("failed to upload vertex data for geometry %s: %s", geometry.Name, err.Error())
		return err
	}
	vr.context.ObjectVertexBuffer.TotalSize += vertexTotalSize

	if indexCount > 0 {
		indexTotalSize := uint64(indexSize) * uint64(indexCount)
		indexBytes := make([]byte, indexTotalSize)
		for i, idx := range indices {
			indexBytes[i*4+0] = byte(idx)
			indexBytes[i*4+1] = byte(idx >> 8)
			indexBytes[i*4+2] = byte(idx >> 16)
			indexBytes[i*4+3] = byte(idx >> 24)
		}

		internal.IndexBufferOffset = vr.context.ObjectIndexBuffer.TotalSize
		if err := vr.uploadToDeviceLocalBuffer(vr.context.ObjectIndexBuffer, internal.IndexBufferOffset, indexTotalSize, indexBytes); err != nil {
			core.LogError("failed to upload index data for geometry %s: %s", geometry.Name, err.Error())
			return err
		}
		vr.context.ObjectIndexBuffer.TotalSize += indexTotalSize
	}

	internal.Generation++
	vr.context.Geometries = append(vr.context.Geometries, internal)
	geometry.InternalID = uint32(len(vr.context.Geometries) - 1)

	return nil
}

func (vr *VulkanRenderer) DestroyGeometry(geometry *metadata.Geometry) {
	if int(geometry.InternalID) >= len(vr.context.Geometries) {
		return
	}
	vr.context.Geometries[geometry.InternalID] = nil
}

func (vr *VulkanRenderer) DrawGeometry(data *metadata.GeometryRenderData) {
	if data.Geometry == nil || int(data.Geometry.InternalID) >= len(vr.context.Geometries) {
		return
	}
	internal := vr.context.Geometries[data.Geometry.InternalID]
	if internal == nil {
		core.LogWarn("cannot draw geometry with invalid internal data")
		return
	}

	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]

	vertexInternal, ok := vr.context.ObjectVertexBuffer.InternalData.(*VulkanBuffer)
	if !ok {
		return
	}
	offsets := []vk.DeviceSize{vk.DeviceSize(internal.VertexBufferOffset)}
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vertexInternal.Handle}, offsets)

	if internal.IndexCount > 0 {
		indexInternal, ok := vr.context.ObjectIndexBuffer.InternalData.(*VulkanBuffer)
		if !ok {
			return
		}
		vk.CmdBindIndexBuffer(commandBuffer.Handle, indexInternal.Handle, vk.DeviceSize(internal.IndexBufferOffset), vk.IndexTypeUint32)
		vk.CmdDrawIndexed(commandBuffer.Handle, internal.IndexCount, 1, 0, 0, 0)
	} else {
		vk.CmdDraw(commandBuffer.Handle, internal.VertexCount, 1, 0, 0)
	}
}
