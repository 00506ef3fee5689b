// package common contains common types and helpers used throughout the application. They are plain structs and
// functions rather than interface-wrapped types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// BlankTexture returns a 1x1 fully transparent texture used wherever an optional image is missing.
func BlankTexture() TextureStagingData {
	return TextureStagingData{Pixels: []byte{0, 0, 0, 0}, Width: 1, Height: 1}
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero fields fall back to the defaults applied by ToDescriptor.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// ToDescriptor converts the staging data to a wgpu.SamplerDescriptor, filling unset fields with
// repeat addressing, linear filtering and a full LOD range.
//
// Parameters:
//   - label: the debug label of the sampler
//
// Returns:
//   - *wgpu.SamplerDescriptor: the descriptor ready for device creation
func (s SamplerStagingData) ToDescriptor(label string) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: Coalesce(s.MaxAnisotropy, 1),
	}
}

// DecodeImageFile decodes a PNG or JPEG file on disk to RGBA pixel data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - path: the file path of the image
//
// Returns:
//   - TextureStagingData: the decoded RGBA pixels and dimensions
//   - error: error if the file cannot be read or decoded
func DecodeImageFile(path string) (TextureStagingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	staging, err := DecodeImage(data)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}
	return staging, nil
}

// DecodeImage decodes raw PNG or JPEG bytes to RGBA pixel data.
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - TextureStagingData: the decoded RGBA pixels and dimensions
//   - error: error if decoding fails
func DecodeImage(data []byte) (TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
