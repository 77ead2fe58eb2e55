package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrDecode reports that an uploaded buffer could not be interpreted as an
// image. It maps to a client error at the HTTP boundary.
var ErrDecode = errors.New("vision: cannot decode image")

// Per-channel normalization constants (RGB order) matching the statistics
// the classifier was trained with.
var (
	channelMean = [Channels]float32{0.485, 0.456, 0.406}
	channelStd  = [Channels]float32{0.229, 0.224, 0.225}
)

// Preprocess decodes a raw image buffer and converts it to the classifier
// input tensor: 3-channel RGB, bilinear-resized to 224x224, scaled to [0,1]
// and mean/std normalized, in planar NCHW layout with a batch dimension of 1.
//
// Decoding in color mode folds grayscale and alpha-channel sources into
// 3 channels, so the channel invariant holds for 1-, 3- and 4-channel input.
func Preprocess(raw []byte) (*Tensor, error) {
	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, ErrDecode
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(rgb, &resized, image.Pt(InputWidth, InputHeight), 0, 0, gocv.InterpolationLinear); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f32 := gocv.NewMat()
	defer f32.Close()
	resized.ConvertTo(&f32, gocv.MatTypeCV32FC3)

	// Interleaved HWC pixel data backed by the Mat; copied out below while
	// reordering to planar CHW.
	pixels, err := f32.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	t := NewTensor()
	plane := InputHeight * InputWidth
	for y := 0; y < InputHeight; y++ {
		for x := 0; x < InputWidth; x++ {
			base := (y*InputWidth + x) * Channels
			for c := 0; c < Channels; c++ {
				v := pixels[base+c] / 255.0
				t.Data[c*plane+y*InputWidth+x] = (v - channelMean[c]) / channelStd[c]
			}
		}
	}

	return t, nil
}
