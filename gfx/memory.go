package gfx

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

// FindMemoryType returns the first memory type allowed by typeBits whose
// property flags include properties.
func FindMemoryType(types []driver.MemoryType, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		if i >= 32 {
			break
		}
		typeBit := uint32(1 << i)

		if typeBits&typeBit != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}

	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x, properties %v", typeBits, properties)
}

// FindSupportedFormat returns the first candidate whose features for tiling
// include features.
func FindSupportedFormat(device driver.PhysicalDevice, candidates []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range candidates {
		props := device.FormatProperties(format)

		if tiling == core1_0.ImageTilingLinear && props.LinearTilingFeatures&features == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && props.OptimalTilingFeatures&features == features {
			return format, nil
		}
	}

	return 0, errors.Wrapf(ErrUnsupportedFormat, "tiling %v, features %v", tiling, features)
}

// DepthFormats are tried in order by FindDepthFormat.
var DepthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

func FindDepthFormat(device driver.PhysicalDevice) (core1_0.Format, error) {
	return FindSupportedFormat(device, DepthFormats, core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment)
}

// writeData encodes data with the native byte order into mapped memory.
func writeData(memory driver.DeviceMemory, offset int, data any) error {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return err
	}
	if buf.Len() == 0 {
		return nil
	}

	memoryPtr, err := memory.Map(offset, buf.Len())
	if err != nil {
		return err
	}
	defer memory.Unmap()

	copy(unsafe.Slice((*byte)(memoryPtr), buf.Len()), buf.Bytes())
	return nil
}
