package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"
)

const onnxFeatureCount = 7

type onnxOptions struct {
	InputName   string
	OutputName  string
	LibraryPath string
}

// onnxModel runs a regressor exported to ONNX (float32 [1,7] in, [1,1] out).
// The session reuses bound tensors, so calls are serialized.
type onnxModel struct {
	mu      sync.Mutex
	session *onnxruntime.AdvancedSession
	input   *onnxruntime.Tensor[float32]
	output  *onnxruntime.Tensor[float32]
}

func newONNXModel(path string, opts onnxOptions) (*onnxModel, error) {
	if opts.InputName == "" {
		opts.InputName = "float_input"
	}
	if opts.OutputName == "" {
		opts.OutputName = "variable"
	}
	if opts.LibraryPath != "" {
		onnxruntime.SetSharedLibraryPath(opts.LibraryPath)
	}
	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX Runtime environment: %w", err)
		}
	}

	input, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, onnxFeatureCount), make([]float32, onnxFeatureCount))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := onnxruntime.NewAdvancedSession(path,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]onnxruntime.Value{input},
		[]onnxruntime.Value{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	return &onnxModel{session: session, input: input, output: output}, nil
}

// Predict 逐行推理
func (m *onnxModel) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, errors.New("onnx session closed")
	}

	out := make([]float64, 0, len(rows))
	data := m.input.GetData()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != onnxFeatureCount {
			return nil, fmt.Errorf("expected %d features, got %d", onnxFeatureCount, len(row))
		}
		for i, v := range row {
			data[i] = float32(v)
		}
		if err := m.session.Run(); err != nil {
			return nil, fmt.Errorf("onnx run: %w", err)
		}
		out = append(out, float64(m.output.GetData()[0]))
	}
	return out, nil
}

// Close 释放会话和张量
func (m *onnxModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy session: %w", err))
		}
		m.session = nil
	}
	if m.input != nil {
		if err := m.input.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy input tensor: %w", err))
		}
		m.input = nil
	}
	if m.output != nil {
		if err := m.output.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy output tensor: %w", err))
		}
		m.output = nil
	}
	return errors.Join(errs...)
}
