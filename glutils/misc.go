package glutils

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.6-core/gl"
)

func CheckError() error {
	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		return fmt.Errorf("OpenGL error 0x%x", errCode)
	}
	return nil
}

// Initialize and return a vertex array from the points provided.
// Every three floats form one position bound to attribute 0.
func MakeVao(points []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(points), gl.Ptr(points), gl.STATIC_DRAW)

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 0, nil)
	gl.BindVertexArray(0)
	return vao
}

// Copy the pixels of the bound framebuffer to an image.
// Rows come bottom-up as OpenGL stores them; see FlipImage.
func ReadFramebuffer(width, height int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if err := CheckError(); err != nil {
		return nil, err
	}
	return img, nil
}

// Create a copy of src reflected along the vertical axis
func FlipImage(src image.Image) image.Image {
	dst := image.NewRGBA(src.Bounds())
	for i := 0; i < src.Bounds().Dx(); i++ {
		for j := 0; j < src.Bounds().Dy(); j++ {
			dst.Set(i, j, src.At(i, src.Bounds().Dy()-1-j))
		}
	}
	return dst
}
