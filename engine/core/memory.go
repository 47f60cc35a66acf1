package core

import (
	"fmt"
	"sync"
)

// MemoryTag identifies the subsystem an allocation belongs to, for the
// per-tag usage report in MemoryUsageString.
type MemoryTag int

const (
	MemoryTagUnknown MemoryTag = iota
	MemoryTagArray
	MemoryTagDArray
	MemoryTagDict
	MemoryTagRingQueue
	MemoryTagBST
	MemoryTagString
	MemoryTagApplication
	MemoryTagJob
	MemoryTagTexture
	MemoryTagMaterialInstance
	MemoryTagRenderer
	MemoryTagGame
	MemoryTagTransform
	MemoryTagEntity
	MemoryTagEntityNode
	MemoryTagScene
	MemoryTagLinearAllocator

	memoryTagCount
)

var memoryTagNames = [memoryTagCount]string{
	MemoryTagUnknown:          "UNKNOWN",
	MemoryTagArray:            "ARRAY",
	MemoryTagDArray:           "DARRAY",
	MemoryTagDict:             "DICT",
	MemoryTagRingQueue:        "RING_QUEUE",
	MemoryTagBST:              "BST",
	MemoryTagString:           "STRING",
	MemoryTagApplication:      "APPLICATION",
	MemoryTagJob:              "JOB",
	MemoryTagTexture:          "TEXTURE",
	MemoryTagMaterialInstance: "MATERIAL_INSTANCE",
	MemoryTagRenderer:         "RENDERER",
	MemoryTagGame:             "GAME",
	MemoryTagTransform:        "TRANSFORM",
	MemoryTagEntity:           "ENTITY",
	MemoryTagEntityNode:       "ENTITY_NODE",
	MemoryTagScene:            "SCENE",
	MemoryTagLinearAllocator:  "LINEAR_ALLOCATOR",
}

func (t MemoryTag) String() string {
	if t < 0 || int(t) >= len(memoryTagNames) {
		return memoryTagNames[MemoryTagUnknown]
	}
	return memoryTagNames[t]
}

type memoryState struct {
	mu         sync.Mutex
	totalBytes uint64
	taggedSize [memoryTagCount]uint64
}

var (
	onceMemory sync.Once
	memState   *memoryState
)

// MemoryInitialize prepares the tagged allocation counters. Idempotent.
func MemoryInitialize() {
	onceMemory.Do(func() {
		memState = &memoryState{}
	})
}

// MemoryShutdown logs a warning when bytes are still recorded as allocated,
// which indicates a caller freed less than it allocated. It does not reset
// the counters.
func MemoryShutdown() {
	if memState == nil {
		return
	}
	memState.mu.Lock()
	defer memState.mu.Unlock()
	if memState.totalBytes != 0 {
		LogWarn("MemoryShutdown: %d bytes still allocated across all tags", memState.totalBytes)
	}
}

// MemoryAllocate records size bytes attributed to tag. Allocating under
// MemoryTagUnknown is legal but warned about, since it usually means a
// caller forgot to pick a specific tag.
func MemoryAllocate(size uint64, tag MemoryTag) {
	if memState == nil {
		MemoryInitialize()
	}
	if tag == MemoryTagUnknown {
		LogWarn("MemoryAllocate called using MemoryTagUnknown. Re-class this allocation.")
	}
	memState.mu.Lock()
	defer memState.mu.Unlock()
	memState.totalBytes += size
	memState.taggedSize[tag] += size
}

// MemoryFree reverses a prior MemoryAllocate of the same size and tag.
func MemoryFree(size uint64, tag MemoryTag) {
	if memState == nil {
		MemoryInitialize()
	}
	if tag == MemoryTagUnknown {
		LogWarn("MemoryFree called using MemoryTagUnknown. Re-class this allocation.")
	}
	memState.mu.Lock()
	defer memState.mu.Unlock()
	memState.totalBytes -= size
	memState.taggedSize[tag] -= size
}

// MemoryUsageString renders current per-tag usage, grouped B/KiB/MiB/GiB.
func MemoryUsageString() string {
	if memState == nil {
		return "System memory use (no tags registered):\n"
	}
	memState.mu.Lock()
	defer memState.mu.Unlock()

	out := "System memory use:\n"
	for tag := MemoryTag(0); tag < memoryTagCount; tag++ {
		amount, unit := formatMemoryAmount(memState.taggedSize[tag])
		out += fmt.Sprintf("  %-18s: %.2f%s\n", tag.String(), amount, unit)
	}
	return out
}

func formatMemoryAmount(bytes uint64) (float64, string) {
	const kib = 1024.0
	const mib = kib * 1024.0
	const gib = mib * 1024.0

	switch {
	case bytes >= uint64(gib):
		return float64(bytes) / gib, "GiB"
	case bytes >= uint64(mib):
		return float64(bytes) / mib, "MiB"
	case bytes >= uint64(kib):
		return float64(bytes) / kib, "KiB"
	default:
		return float64(bytes), "B"
	}
}
