package ml

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// onnxFixture 需要本地ONNX Runtime和导出的回归模型，缺一则跳过
func onnxFixture(t *testing.T) (lib, model string) {
	t.Helper()
	lib = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	if lib == "" {
		t.Skip("ONNXRUNTIME_SHARED_LIBRARY_PATH not set")
	}
	model = os.Getenv("HOUSEPRICE_TEST_ONNX_MODEL")
	if model == "" {
		model = filepath.Join("testdata", "random_forest_model.onnx")
	}
	if _, err := os.Stat(model); err != nil {
		t.Skipf("onnx fixture not available: %v", err)
	}
	return lib, model
}

func TestONNXModelPredictAndClose(t *testing.T) {
	lib, path := onnxFixture(t)

	loader, err := NewLoader(LoaderOptions{Path: path, OnnxLibrary: lib}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer loader.Close()

	model, err := loader.Load()
	if err != nil {
		t.Fatalf("load onnx model: %v", err)
	}

	rows := [][]float64{
		{3, 2, 1, 150, 100, 1990, 5.0},
		{5, 3, 2, 600, 220, 2010, 12.5},
	}
	out, err := model.Predict(context.Background(), rows)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(out) != len(rows) {
		t.Fatalf("expected %d predictions, got %d", len(rows), len(out))
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("prediction %d not finite: %v", i, v)
		}
	}

	// 输入张量固定为[1,7]
	if _, err := model.Predict(context.Background(), [][]float64{{1, 2, 3}}); err == nil {
		t.Fatal("expected error for short feature row")
	}

	onnx, ok := model.(*onnxModel)
	if !ok {
		t.Fatalf("expected *onnxModel, got %T", model)
	}
	if err := onnx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := onnx.Predict(context.Background(), rows[:1]); err == nil {
		t.Fatal("expected error after close")
	}
	// 重复关闭无副作用
	if err := onnx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
