package protocol

import (
	"errors"
	"fmt"
)

const (
	// BitsPerPixel is the native color depth of the glasses.
	BitsPerPixel = 2

	// PixelsPerByte is how many pixels close one payload byte.
	PixelsPerByte = 8 / BitsPerPixel

	// MaxIntensity is the brightest pixel value.
	MaxIntensity = 1<<BitsPerPixel - 1

	// DisplayWidth and DisplayHeight describe the Chemion LED matrix.
	DisplayWidth  = 24
	DisplayHeight = 9
)

// ErrInvalidPixelValue is returned when a frame holds an intensity outside 0..MaxIntensity.
var ErrInvalidPixelValue = errors.New("invalid pixel value")

// InvalidPixelError reports the first offending pixel of a frame.
type InvalidPixelError struct {
	Row   int
	Col   int
	Value int
}

func (e *InvalidPixelError) Error() string {
	return fmt.Sprintf("wrong value in frame: pixel (%d,%d) is %d, must be 0..%d", e.Row, e.Col, e.Value, MaxIntensity)
}

// Is lets errors.Is match ErrInvalidPixelValue.
func (e *InvalidPixelError) Is(target error) bool {
	return target == ErrInvalidPixelValue
}

// Frame is a row-major grid of pixel intensities. Rows may differ in length;
// pixels are consumed in reading order regardless.
type Frame [][]int

// NewFrame returns an all-dark frame of the given size.
func NewFrame(width, height int) Frame {
	f := make(Frame, height)
	for y := range f {
		f[y] = make([]int, width)
	}
	return f
}

// Validate checks every intensity without encoding anything.
func (f Frame) Validate() error {
	for y, row := range f {
		for x, px := range row {
			if px < 0 || px > MaxIntensity {
				return &InvalidPixelError{Row: y, Col: x, Value: px}
			}
		}
	}
	return nil
}

// PixelCount returns the total number of pixels across all rows.
func (f Frame) PixelCount() int {
	n := 0
	for _, row := range f {
		n += len(row)
	}
	return n
}

// FrameRequest is the JSON body carrying a pixel frame.
type FrameRequest struct {
	Frame Frame `json:"glasses_frame"`
}
