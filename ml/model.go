package ml

import "context"

// Model is a pre-trained regressor. Each row yields one output value.
type Model interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Model types understood by the loader.
const (
	TypeONNX         = "onnx"
	TypeTreeEnsemble = "tree_ensemble"
)
