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

package interp

import (
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
	"golang.org/x/exp/maps"
)

// Fields stores the values of fields.
// Values are stored as float64 and rounded to the data type of
// the field when written.
type Fields struct {
	data map[*ir.SNode][]float64
}

// NewFields allocates storage for fields and their gradient fields.
func NewFields(snodes ...*ir.SNode) *Fields {
	f := &Fields{data: make(map[*ir.SNode][]float64)}
	for _, snode := range snodes {
		f.Alloc(snode)
	}
	return f
}

// Alloc allocates the storage for a field and its gradient field.
// Values are set to zero.
// Allocating a field already allocated does nothing.
func (f *Fields) Alloc(snode *ir.SNode) {
	for ; snode != nil; snode = snode.Grad {
		if _, ok := f.data[snode]; ok {
			continue
		}
		f.data[snode] = make([]float64, snode.Size())
	}
}

// SNodes returns the allocated fields sorted by name.
func (f *Fields) SNodes() []*ir.SNode {
	snodes := maps.Keys(f.data)
	slices.SortFunc(snodes, func(a, b *ir.SNode) int {
		return strings.Compare(a.Name, b.Name)
	})
	return snodes
}

func (f *Fields) storage(snode *ir.SNode) ([]float64, error) {
	data, ok := f.data[snode]
	if !ok {
		return nil, errors.Errorf("field %s has not been allocated", snode)
	}
	return data, nil
}

// offset returns the position of a cell in the storage of a field.
// Cells are stored in row-major order.
func offset(snode *ir.SNode, index []int) (int, error) {
	axes := snode.Shape.AxisLengths
	if len(index) != len(axes) {
		return 0, errors.Errorf("field %s has rank %d but got %d indices", snode, len(axes), len(index))
	}
	pos := 0
	for i, idx := range index {
		if idx < 0 || idx >= axes[i] {
			return 0, errors.Errorf("index %d out of bounds [0, %d) for axis %d of field %s", idx, axes[i], i, snode)
		}
		pos = pos*axes[i] + idx
	}
	return pos, nil
}

// Get returns the value of a field cell.
func (f *Fields) Get(snode *ir.SNode, index ...int) (float64, error) {
	data, err := f.storage(snode)
	if err != nil {
		return 0, err
	}
	pos, err := offset(snode, index)
	if err != nil {
		return 0, err
	}
	return data[pos], nil
}

// Set the value of a field cell.
func (f *Fields) Set(snode *ir.SNode, val float64, index ...int) error {
	data, err := f.storage(snode)
	if err != nil {
		return err
	}
	pos, err := offset(snode, index)
	if err != nil {
		return err
	}
	data[pos] = convert(snode.DType(), val)
	return nil
}

// Values returns a copy of all the values of a field in row-major order.
func (f *Fields) Values(snode *ir.SNode) ([]float64, error) {
	data, err := f.storage(snode)
	if err != nil {
		return nil, err
	}
	return slices.Clone(data), nil
}

// Zero sets all the values of a field to zero.
func (f *Fields) Zero(snode *ir.SNode) error {
	data, err := f.storage(snode)
	if err != nil {
		return err
	}
	clear(data)
	return nil
}

// convert rounds a value to what a data type can represent.
func convert(dt dtype.DataType, val float64) float64 {
	switch dt {
	case dtype.Bool:
		return boolToFloat(val != 0)
	case dtype.Int32:
		return float64(int32(math.Trunc(val)))
	case dtype.Int64:
		return float64(int64(math.Trunc(val)))
	case dtype.Float32:
		return float64(float32(val))
	}
	return val
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
