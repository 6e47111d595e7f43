// Package predict 实现"Predict Price"触发逻辑
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"houseprice/form"
	"houseprice/ml"
	"houseprice/monitoring"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrEmptyPrediction  = errors.New("model returned no prediction")
	ErrInference        = errors.New("inference failed")
)

// User-facing messages.
const (
	MissingArtifactMessage  = "❌ Required model file is missing! Please upload the correct file."
	ModelUnavailableMessage = "❌ Model is not properly loaded. Please check your setup."
	InferenceFailedMessage  = "❌ Prediction failed. Please check the model and try again."
)

// Result is the outcome of one trigger activation.
type Result struct {
	Price    float64
	Display  string
	Features form.FeatureVector
	Err      error
}

// OK 是否预测成功
func (r Result) OK() bool {
	return r.Err == nil
}

// Message 面向用户的错误提示
func (r Result) Message() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, ErrModelUnavailable):
		return ModelUnavailableMessage
	default:
		return InferenceFailedMessage
	}
}

// Trigger holds the model handle built once at startup. A nil model means
// loading failed; every activation then reports ErrModelUnavailable.
type Trigger struct {
	model    ml.Model
	logger   *zap.Logger
	reporter *monitoring.Reporter
	printer  *message.Printer
}

// NewTrigger 创建触发器，model可以为nil
func NewTrigger(model ml.Model, logger *zap.Logger, reporter *monitoring.Reporter) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		model:    model,
		logger:   logger,
		reporter: reporter,
		printer:  message.NewPrinter(language.English),
	}
}

// Ready reports whether a model is loaded.
func (t *Trigger) Ready() bool {
	return t.model != nil
}

// Fire runs one prediction from the current view model state.
func (t *Trigger) Fire(ctx context.Context, vm *form.ViewModel) Result {
	if t.model == nil {
		t.logger.Warn("prediction requested without a loaded model")
		return Result{Err: ErrModelUnavailable}
	}

	vector := vm.Vector()
	price, err := t.infer(ctx, vector)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInference, err)
		t.logger.Warn("prediction failed", zap.Float64s("features", vector.Slice()), zap.Error(err))
		t.reporter.CaptureError(err, map[string]string{"component": "predict"})
		return Result{Features: vector, Err: err}
	}

	t.logger.Info("prediction",
		zap.Float64s("features", vector.Slice()),
		zap.Float64("price", price))
	return Result{Price: price, Display: t.FormatPrice(price), Features: vector}
}

func (t *Trigger) infer(ctx context.Context, vector form.FeatureVector) (price float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	out, err := t.model.Predict(ctx, [][]float64{vector.Slice()})
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, ErrEmptyPrediction
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, fmt.Errorf("non-finite prediction %v", out[0])
	}
	return out[0], nil
}

// FormatPrice renders a price as "$450,000.50".
func (t *Trigger) FormatPrice(price float64) string {
	cents := math.Round(price*100) / 100
	if cents == 0 {
		cents = 0 // 去掉负零
	}
	if cents < 0 {
		return "-" + t.printer.Sprintf("$%.2f", -cents)
	}
	return t.printer.Sprintf("$%.2f", cents)
}
