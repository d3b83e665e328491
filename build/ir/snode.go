// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"log/slog"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

// SNode describes a field: a global array of values.
//
// A differentiable field links to its gradient field, a field with the same
// shape storing the adjoint of each cell. The link is set when the fields
// are laid out, before any pass runs.
type SNode struct {
	Name  string
	Shape *shape.Shape
	Grad  *SNode
}

// NewField returns a field given its element type and its axis lengths.
// A field without axis is a single value.
func NewField(name string, dt dtype.DataType, dims ...int) *SNode {
	return &SNode{
		Name: name,
		Shape: &shape.Shape{
			DType:       dt,
			AxisLengths: append([]int{}, dims...),
		},
	}
}

// NewFieldWithGrad returns a field linked to a gradient field of the same shape.
func NewFieldWithGrad(name string, dt dtype.DataType, dims ...int) *SNode {
	field := NewField(name, dt, dims...)
	field.Grad = NewField(name+".grad", dt, dims...)
	return field
}

// DType returns the data type of the field elements.
func (s *SNode) DType() dtype.DataType {
	return s.Shape.DType
}

// Rank returns the number of axes of the field.
func (s *SNode) Rank() int {
	return len(s.Shape.AxisLengths)
}

// Size returns the number of cells in the field.
func (s *SNode) Size() int {
	size := 1
	for _, l := range s.Shape.AxisLengths {
		size *= l
	}
	return size
}

func (s *SNode) String() string {
	return s.Name
}

// Config is the configuration of a compilation.
type Config struct {
	// GradientDType is the data type of adjoint accumulators.
	GradientDType dtype.DataType
	// Logger receives warnings and debug dumps.
	// slog.Default() is used if nil.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		GradientDType: dtype.Float32,
		Logger:        slog.Default(),
	}
}

// Log returns the logger of the configuration.
func (c Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
