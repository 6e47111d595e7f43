package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidNumber = errors.New("invalid number")
)

// FeatureVector is the model input:
// [rooms, bathrooms, car_spaces, landsize, building_area, year_built, distance_km].
type FeatureVector [FeatureCount]float64

// Slice 转换为模型输入切片
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// ViewModel holds the current value of every input field. It is owned by
// one render session and is not safe for concurrent use.
type ViewModel struct {
	values [FeatureCount]float64
}

// NewViewModel 所有字段取默认值
func NewViewModel() *ViewModel {
	vm := &ViewModel{}
	vm.Reset()
	return vm
}

// Reset 恢复默认值
func (vm *ViewModel) Reset() {
	for i, f := range fields {
		vm.values[i] = f.Default
	}
}

// Set is the field-change handler. It stores the clamped value and returns it.
func (vm *ViewModel) Set(name string, v float64) (float64, error) {
	i, ok := fieldIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return vm.values[i], fmt.Errorf("%w for %s: %v", ErrInvalidNumber, name, v)
	}
	vm.values[i] = fields[i].Clamp(v)
	return vm.values[i], nil
}

// SetRaw parses text input and applies it via Set. Unparsable input leaves
// the field unchanged.
func (vm *ViewModel) SetRaw(name, raw string) (float64, error) {
	i, ok := fieldIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return vm.values[i], fmt.Errorf("%w for %s: %q", ErrInvalidNumber, name, raw)
	}
	return vm.Set(name, v)
}

// Get 读取字段当前值
func (vm *ViewModel) Get(name string) (float64, bool) {
	i, ok := fieldIndex(name)
	if !ok {
		return 0, false
	}
	return vm.values[i], true
}

// Vector 按固定顺序组装特征向量
func (vm *ViewModel) Vector() FeatureVector {
	return FeatureVector(vm.values)
}

// Values 字段名到当前值的映射
func (vm *ViewModel) Values() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, f := range fields {
		out[f.Name] = vm.values[i]
	}
	return out
}

// Input pairs a field with its current value for rendering.
type Input struct {
	Field
	Value float64
}

// Display 当前值的输入框文本
func (in Input) Display() string {
	return in.Field.Format(in.Value)
}

// Inputs 渲染用的字段列表
func (vm *ViewModel) Inputs() []Input {
	out := make([]Input, FeatureCount)
	for i, f := range fields {
		out[i] = Input{Field: f, Value: vm.values[i]}
	}
	return out
}
