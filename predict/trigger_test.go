package predict

import (
	"context"
	"errors"
	"testing"

	"houseprice/form"
)

type fakeModel struct {
	calls [][][]float64
	out   []float64
	err   error
	panic bool
}

func (f *fakeModel) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	f.calls = append(f.calls, rows)
	if f.panic {
		panic("broken model")
	}
	return f.out, f.err
}

func TestFireCallsModelOnceWithOrderedVector(t *testing.T) {
	model := &fakeModel{out: []float64{450000.5}}
	trigger := NewTrigger(model, nil, nil)

	vm := form.NewViewModel()
	vm.Set(form.Rooms, 4)
	vm.Set(form.YearBuilt, 2001)
	vm.Set(form.DistanceKm, 12.5)

	res := trigger.Fire(context.Background(), vm)
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(model.calls) != 1 {
		t.Fatalf("expected exactly one inference call, got %d", len(model.calls))
	}
	rows := model.calls[0]
	if len(rows) != 1 || len(rows[0]) != form.FeatureCount {
		t.Fatalf("expected one row of %d features, got %v", form.FeatureCount, rows)
	}
	want := []float64{4, 2, 1, 150, 100, 2001, 12.5}
	for i, v := range want {
		if rows[0][i] != v {
			t.Fatalf("feature %d: got %v want %v", i, rows[0][i], v)
		}
	}
	if res.Price != 450000.5 || res.Display != "$450,000.50" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestFireWithoutModel(t *testing.T) {
	trigger := NewTrigger(nil, nil, nil)
	if trigger.Ready() {
		t.Fatal("trigger without model should not be ready")
	}

	res := trigger.Fire(context.Background(), form.NewViewModel())
	if !errors.Is(res.Err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", res.Err)
	}
	if res.Message() != ModelUnavailableMessage {
		t.Fatalf("unexpected message %q", res.Message())
	}
}

func TestFireClassifiesInferenceFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		is    error
	}{
		{"model error", &fakeModel{err: errors.New("shape mismatch")}, ErrInference},
		{"empty output", &fakeModel{out: nil}, ErrEmptyPrediction},
		{"panic", &fakeModel{panic: true}, ErrInference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewTrigger(tt.model, nil, nil).Fire(context.Background(), form.NewViewModel())
			if !errors.Is(res.Err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, res.Err)
			}
			if !errors.Is(res.Err, ErrInference) {
				t.Fatalf("expected error to wrap ErrInference, got %v", res.Err)
			}
			if res.Message() != InferenceFailedMessage {
				t.Fatalf("unexpected message %q", res.Message())
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	trigger := NewTrigger(nil, nil, nil)
	tests := []struct {
		in   float64
		want string
	}{
		{450000.5, "$450,000.50"},
		{123456.78, "$123,456.78"},
		{999.999, "$1,000.00"},
		{0, "$0.00"},
		{1234567.891, "$1,234,567.89"},
		{-1234, "-$1,234.00"},
		{-0.001, "$0.00"},
		{-0.004, "$0.00"},
	}
	for _, tt := range tests {
		if got := trigger.FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
