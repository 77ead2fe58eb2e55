package vision

import (
	"math"
	"math/rand"

	"roadwatch/internal/models"
)

// nativeEngine is the fixed default classifier architecture, instantiated
// untrained when no weight artifact is available:
//
//	conv3x3(3→32) + ReLU + maxpool2
//	conv3x3(32→64) + ReLU + maxpool2
//	conv3x3(64→128) + ReLU + maxpool2
//	flatten → dense(512) + ReLU → dropout → dense(1) → sigmoid
//
// Dropout is the identity at inference time. The weights are seeded
// deterministically so Predict is reproducible across runs, and never change
// after construction, so concurrent Predict calls need no locking.
type nativeEngine struct {
	conv1, conv2, conv3 *convLayer
	fc1, fc2            *denseLayer
}

const nativeSeed = 42

func newNativeEngine() *nativeEngine {
	rng := rand.New(rand.NewSource(nativeSeed))
	flat := 128 * (InputHeight / 8) * (InputWidth / 8)
	return &nativeEngine{
		conv1: newConvLayer(rng, Channels, 32),
		conv2: newConvLayer(rng, 32, 64),
		conv3: newConvLayer(rng, 64, 128),
		fc1:   newDenseLayer(rng, flat, 512),
		fc2:   newDenseLayer(rng, 512, 1),
	}
}

// Predict runs the forward pass on the CPU.
func (e *nativeEngine) Predict(t *Tensor) (models.PredictionResult, error) {
	x := e.conv1.forward(t.Data, InputWidth, InputHeight)
	x = maxPool2(x, e.conv1.outCh, InputWidth, InputHeight)

	x = e.conv2.forward(x, InputWidth/2, InputHeight/2)
	x = maxPool2(x, e.conv2.outCh, InputWidth/2, InputHeight/2)

	x = e.conv3.forward(x, InputWidth/4, InputHeight/4)
	x = maxPool2(x, e.conv3.outCh, InputWidth/4, InputHeight/4)

	x = e.fc1.forward(x, true)
	x = e.fc2.forward(x, false)

	return resultFrom(sigmoid(float64(x[0]))), nil
}

func (e *nativeEngine) Device() string { return "cpu" }

func (e *nativeEngine) Close() error { return nil }

// convLayer is a 3x3 convolution with padding 1 followed by ReLU.
// Weights are laid out [outCh][inCh][3][3].
type convLayer struct {
	inCh, outCh int
	weights     []float32
	bias        []float32
}

func newConvLayer(rng *rand.Rand, inCh, outCh int) *convLayer {
	l := &convLayer{
		inCh:    inCh,
		outCh:   outCh,
		weights: make([]float32, outCh*inCh*9),
		bias:    make([]float32, outCh),
	}
	scale := float32(math.Sqrt(2.0 / float64(inCh*9)))
	for i := range l.weights {
		l.weights[i] = float32(rng.NormFloat64()) * scale
	}
	return l
}

// forward applies the convolution to a planar [inCh][h][w] input and returns
// a planar [outCh][h][w] output.
func (l *convLayer) forward(src []float32, w, h int) []float32 {
	dst := make([]float32, l.outCh*h*w)
	plane := h * w

	for oc := 0; oc < l.outCh; oc++ {
		out := dst[oc*plane : (oc+1)*plane]
		for ic := 0; ic < l.inCh; ic++ {
			in := src[ic*plane : (ic+1)*plane]
			k := l.weights[(oc*l.inCh+ic)*9 : (oc*l.inCh+ic)*9+9]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					var sum float32
					for ky := -1; ky <= 1; ky++ {
						sy := y + ky
						if sy < 0 || sy >= h {
							continue
						}
						row := in[sy*w:]
						krow := k[(ky+1)*3:]
						for kx := -1; kx <= 1; kx++ {
							sx := x + kx
							if sx < 0 || sx >= w {
								continue
							}
							sum += row[sx] * krow[kx+1]
						}
					}
					out[y*w+x] += sum
				}
			}
		}
		// bias + ReLU
		b := l.bias[oc]
		for i := range out {
			v := out[i] + b
			if v < 0 {
				v = 0
			}
			out[i] = v
		}
	}

	return dst
}

// maxPool2 applies 2x2 max pooling with stride 2 to a planar [ch][h][w]
// input, halving both spatial dimensions.
func maxPool2(src []float32, ch, w, h int) []float32 {
	ow, oh := w/2, h/2
	dst := make([]float32, ch*oh*ow)

	for c := 0; c < ch; c++ {
		in := src[c*h*w : (c+1)*h*w]
		out := dst[c*oh*ow : (c+1)*oh*ow]
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				sy, sx := y*2, x*2
				m := in[sy*w+sx]
				if v := in[sy*w+sx+1]; v > m {
					m = v
				}
				if v := in[(sy+1)*w+sx]; v > m {
					m = v
				}
				if v := in[(sy+1)*w+sx+1]; v > m {
					m = v
				}
				out[y*ow+x] = m
			}
		}
	}

	return dst
}

// denseLayer is a fully connected layer. Weights are laid out [out][in].
type denseLayer struct {
	in, out int
	weights []float32
	bias    []float32
}

func newDenseLayer(rng *rand.Rand, in, out int) *denseLayer {
	l := &denseLayer{
		in:      in,
		out:     out,
		weights: make([]float32, out*in),
		bias:    make([]float32, out),
	}
	scale := float32(math.Sqrt(2.0 / float64(in)))
	for i := range l.weights {
		l.weights[i] = float32(rng.NormFloat64()) * scale
	}
	return l
}

func (l *denseLayer) forward(src []float32, relu bool) []float32 {
	dst := make([]float32, l.out)
	for o := 0; o < l.out; o++ {
		row := l.weights[o*l.in : (o+1)*l.in]
		sum := l.bias[o]
		for i, v := range src {
			sum += v * row[i]
		}
		if relu && sum < 0 {
			sum = 0
		}
		dst[o] = sum
	}
	return dst
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
