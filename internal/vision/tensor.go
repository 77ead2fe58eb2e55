package vision

// Classifier input geometry. Every frame is normalized to a single-sample
// NCHW tensor of this shape before inference, regardless of the source
// image's size or channel count.
const (
	Channels    = 3
	InputHeight = 224
	InputWidth  = 224
)

// Tensor is a normalized NCHW float32 array of shape [1, 3, 224, 224],
// planar RGB.
type Tensor struct {
	Data []float32
}

// NewTensor allocates a zeroed tensor of the classifier input shape.
func NewTensor() *Tensor {
	return &Tensor{Data: make([]float32, Channels*InputHeight*InputWidth)}
}

// Shape returns the tensor dimensions including the leading batch dimension.
func (t *Tensor) Shape() []int64 {
	return []int64{1, Channels, InputHeight, InputWidth}
}

// At returns the value at channel c, row y, column x.
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[c*InputHeight*InputWidth+y*InputWidth+x]
}
