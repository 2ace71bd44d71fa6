package glutils

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/xopoww/go-volumetric/volume"
)

// MakeVolumeTexture uploads a dense volume as a single channel 8-bit 3D texture.
// The texture samples linearly and clamps at the edges, so the ray marcher
// reads zero density just outside the lattice.
func MakeVolumeTexture(d *volume.Dense) (uint32, error) {
	if d == nil || d.N <= 0 || len(d.Cells) != d.N*d.N*d.N {
		return 0, fmt.Errorf("volume texture: malformed dense volume")
	}
	texels := d.R8()

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_3D, texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage3D(
		gl.TEXTURE_3D,
		0,
		gl.R8,
		int32(d.N),
		int32(d.N),
		int32(d.N),
		0,
		gl.RED,
		gl.UNSIGNED_BYTE,
		gl.Ptr(texels),
	)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_3D, 0)

	if err := CheckError(); err != nil {
		gl.DeleteTextures(1, &texture)
		return 0, fmt.Errorf("volume texture %d³: %w", d.N, err)
	}
	return texture, nil
}
