package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

func (vr *VulkanRenderer) WindowAttachmentIndexGet() uint32 {
	return vr.context.ImageIndex
}

func (vr *VulkanRenderer) GetWindowAttachmentCount() uint8 {
	return uint8(vr.context.Swapchain.ImageCount)
}

// RenderPassCreate builds a new dynamic renderpass (beyond the always-present
// main renderpass) and, if configured, its backing render targets.
func (vr *VulkanRenderer) RenderPassCreate(config *metadata.RenderPassConfig) (*metadata.RenderPass, error) {
	pass := &metadata.RenderPass{
		RenderArea:        config.RenderArea,
		ClearColour:       config.ClearColour,
		ClearFlags:        uint8(config.ClearFlags),
		RenderTargetCount: config.RenderTargetCount,
	}

	hasPrevPass := len(vr.context.RegisteredPasses) > 0
	if _, err := RenderpassCreate(vr.context, pass, config.Depth, config.Stencil, hasPrevPass, false); err != nil {
		return nil, err
	}

	vr.context.RegisteredPasses = append(vr.context.RegisteredPasses, pass)
	pass.ID = uint16(len(vr.context.RegisteredPasses) - 1)

	if config.Target != nil && config.RenderTargetCount > 0 {
		pass.Targets = make([]*metadata.RenderTarget, config.RenderTargetCount)
		for i := 0; i < int(config.RenderTargetCount); i++ {
			attachments := make([]*metadata.RenderTargetAttachment, len(config.Target.Attachments))
			for j, a := range config.Target.Attachments {
				attachments[j] = &metadata.RenderTargetAttachment{
					RenderTargetAttachmentType: a.RenderTargetAttachmentType,
					Source:                     a.Source,
					LoadOperation:              a.LoadOperation,
					StoreOperation:             a.StoreOperation,
					PresentAfter:               a.PresentAfter,
				}
			}
			target, err := vr.RenderTargetCreate(uint8(len(attachments)), attachments, pass, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
			if err != nil {
				return nil, err
			}
			pass.Targets[i] = target
		}
	}

	return pass, nil
}

func (vr *VulkanRenderer) RenderPassDestroy(pass *metadata.RenderPass) error {
	internal, ok := pass.InternalData.(*VulkanRenderPass)
	if !ok || internal == nil {
		return fmt.Errorf("renderpass has no internal data")
	}
	internal.RenderpassDestroy(vr.context)
	pass.InternalData = nil
	return nil
}

func (vr *VulkanRenderer) RenderPassBegin(pass *metadata.RenderPass, target *metadata.RenderTarget) error {
	internal, ok := pass.InternalData.(*VulkanRenderPass)
	if !ok || internal == nil {
		return fmt.Errorf("renderpass has no internal data")
	}
	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	internal.RenderpassBegin(commandBuffer, target.InternalFramebuffer)
	return nil
}

func (vr *VulkanRenderer) RenderPassEnd(pass *metadata.RenderPass) error {
	internal, ok := pass.InternalData.(*VulkanRenderPass)
	if !ok || internal == nil {
		return fmt.Errorf("renderpass has no internal data")
	}
	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	internal.RenderpassEnd(commandBuffer)
	return nil
}

// RenderTargetCreate wraps the given attachments' backing image views (or
// the swapchain's, for default-sourced colour/depth attachments) into a
// framebuffer compatible with pass.
func (vr *VulkanRenderer) RenderTargetCreate(attachmentCount uint8, attachments []*metadata.RenderTargetAttachment, pass *metadata.RenderPass, width, height uint32) (*metadata.RenderTarget, error) {
	internalPass, ok := pass.InternalData.(*VulkanRenderPass)
	if !ok || internalPass == nil {
		return nil, fmt.Errorf("renderpass has no internal data")
	}

	views := make([]vk.ImageView, attachmentCount)
	for i, a := range attachments {
		if a.Source == metadata.RENDER_TARGET_ATTACHMENT_SOURCE_DEFAULT && a.Texture == nil {
			if a.RenderTargetAttachmentType == metadata.RENDER_TARGET_ATTACHMENT_TYPE_DEPTH {
				views[i] = vr.context.Swapchain.DepthAttachment.View
			} else {
				views[i] = vr.context.Swapchain.Views[vr.context.ImageIndex]
			}
			continue
		}
		image, ok := a.Texture.InternalData.(*VulkanImage)
		if !ok || image == nil {
			return nil, fmt.Errorf("render target attachment texture has no internal image")
		}
		views[i] = image.View
	}

	fb, err := FramebufferCreate(vr.context, internalPass, width, height, uint32(attachmentCount), views)
	if err != nil {
		core.LogError("failed to create framebuffer for render target: %s", err.Error())
		return nil, err
	}

	return &metadata.RenderTarget{
		AttachmentCount:     attachmentCount,
		Attachments:         attachments,
		InternalFramebuffer: fb.Handle,
	}, nil
}

func (vr *VulkanRenderer) RenderTargetDestroy(target *metadata.RenderTarget, freeInternalMemory bool) error {
	if target == nil || target.InternalFramebuffer == nil {
		return nil
	}
	vk.DestroyFramebuffer(vr.context.Device.LogicalDevice, target.InternalFramebuffer, vr.context.Allocator)
	target.InternalFramebuffer = nil
	if freeInternalMemory {
		target.Attachments = nil
		target.AttachmentCount = 0
	}
	return nil
}
