// Package form 定义房屋特征输入面板
package form

import (
	"math"
	"strconv"
)

// Kind 字段数值类型
type Kind string

const (
	Integer Kind = "integer"
	Float   Kind = "float"
)

// Field names in feature vector order.
const (
	Rooms        = "rooms"
	Bathrooms    = "bathrooms"
	CarSpaces    = "car_spaces"
	Landsize     = "landsize"
	BuildingArea = "building_area"
	YearBuilt    = "year_built"
	DistanceKm   = "distance_km"
)

// FeatureCount 特征向量长度
const FeatureCount = 7

// Field 单个有界数值输入
type Field struct {
	Name    string
	Label   string
	Kind    Kind
	Min     float64
	Max     float64
	Step    float64
	Default float64
}

var fields = [FeatureCount]Field{
	{Name: Rooms, Label: "Number of Rooms", Kind: Integer, Min: 1, Max: 10, Step: 1, Default: 3},
	{Name: Bathrooms, Label: "Number of Bathrooms", Kind: Integer, Min: 1, Max: 10, Step: 1, Default: 2},
	{Name: CarSpaces, Label: "Number of Car Spaces", Kind: Integer, Min: 0, Max: 10, Step: 1, Default: 1},
	{Name: Landsize, Label: "Landsize (sqm)", Kind: Integer, Min: 0, Max: math.Inf(1), Step: 1, Default: 150},
	{Name: BuildingArea, Label: "Building Area (sqm)", Kind: Integer, Min: 0, Max: math.Inf(1), Step: 1, Default: 100},
	{Name: YearBuilt, Label: "Year Built", Kind: Integer, Min: 1800, Max: 2025, Step: 1, Default: 1990},
	{Name: DistanceKm, Label: "Distance to City Center (km)", Kind: Float, Min: 0, Max: math.Inf(1), Step: 0.1, Default: 5.0},
}

// Fields returns the input fields in feature vector order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields[:])
	return out
}

// Lookup 按名称查找字段
func Lookup(name string) (Field, bool) {
	i, ok := fieldIndex(name)
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

func fieldIndex(name string) (int, bool) {
	for i, f := range fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Bounded reports whether the field has a finite maximum.
func (f Field) Bounded() bool {
	return !math.IsInf(f.Max, 1)
}

// Clamp limits v to [Min, Max]. Integer fields are rounded first.
func (f Field) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return f.Default
	}
	if f.Kind == Integer {
		v = math.Round(v)
	}
	if v < f.Min {
		return f.Min
	}
	if v > f.Max {
		return f.Max
	}
	return v
}

// Format 按字段类型格式化数值，用于回填输入框
func (f Field) Format(v float64) string {
	if f.Kind == Integer {
		// 无上限字段可能超出int64范围
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals(f.Step), 64)
}

// MaxAttr is the HTML max attribute, empty when unbounded.
func (f Field) MaxAttr() string {
	if !f.Bounded() {
		return ""
	}
	return f.Format(f.Max)
}

func decimals(step float64) int {
	d := 0
	for step < 1 && d < 6 {
		step *= 10
		d++
	}
	return d
}
