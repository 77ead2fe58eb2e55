package vision

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"roadwatch/internal/models"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxEngine serves a trained classifier through an ONNX Runtime session.
// The runtime requires Run calls on a session to be serialized; that is done
// with a mutex here, below the Engine contract.
type onnxEngine struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	device     string
	mu         sync.Mutex
}

// newONNXEngine loads the ONNX model and creates an inference session,
// validating the model's input/output tensors against the expected
// single-image-in, single-score-out shape. The CUDA execution provider is
// attempted first; CPU is the fallback. The choice is fixed for the life of
// the engine.
func newONNXEngine(modelPath, libPath string) (*onnxEngine, error) {
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input tensor, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 output tensor, got %d", len(outputs))
	}
	if dims := inputs[0].Dimensions; len(dims) != 4 {
		return nil, fmt.Errorf("onnx: expected 4D input tensor, got %v", dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	device := "cpu"
	if cudaOpts, err := ort.NewCUDAProviderOptions(); err == nil {
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err == nil {
			device = "cuda"
		}
		cudaOpts.Destroy()
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &onnxEngine{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		device:     device,
	}, nil
}

// Predict runs a single forward pass and interprets the scalar output,
// already sigmoid-activated by the model, as the accident confidence.
func (e *onnxEngine) Predict(t *Tensor) (models.PredictionResult, error) {
	in, err := ort.NewTensor(ort.NewShape(t.Shape()...), t.Data)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: creating input tensor: %v", ErrInference, err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: creating output tensor: %v", ErrInference, err)
	}
	defer out.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{in}, []ort.Value{out})
	e.mu.Unlock()
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return resultFrom(float64(out.GetData()[0])), nil
}

// Device reports the execution provider chosen at load time.
func (e *onnxEngine) Device() string {
	return e.device
}

// Close releases ONNX Runtime resources.
func (e *onnxEngine) Close() error {
	return e.session.Destroy()
}
