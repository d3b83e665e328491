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

// Package interp executes kernels on the host.
//
// The interpreter is a reference implementation of the semantic of the IR.
// It computes every value in float64 and rounds results to the data type of
// the statement computing them.
package interp

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/fmterr"
	"github.com/gx-org/kernelgrad/build/ir"
)

type (
	// Option configures the execution of a kernel.
	Option func(*machine)

	cell struct {
		snode *ir.SNode
		pos   int
	}

	machine struct {
		fields   *Fields
		out      io.Writer
		maxIters int

		values map[ir.Stmt]float64
		locals map[*ir.AllocaStmt]float64
		ptrs   map[ir.Stmt][]cell
	}
)

// errBreak exits a while loop.
var errBreak = errors.New("break")

// WithOutput sets the writer receiving the output of print statements.
func WithOutput(w io.Writer) Option {
	return func(m *machine) {
		m.out = w
	}
}

// WithMaxIterations sets the maximum number of iterations of while loops.
func WithMaxIterations(n int) Option {
	return func(m *machine) {
		m.maxIters = n
	}
}

// Run executes a block on a set of fields.
func Run(root *ir.Block, fields *Fields, opts ...Option) error {
	m := &machine{
		fields:   fields,
		out:      io.Discard,
		maxIters: 1 << 20,
		values:   make(map[ir.Stmt]float64),
		locals:   make(map[*ir.AllocaStmt]float64),
		ptrs:     make(map[ir.Stmt][]cell),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m.block(root)
}

// RunKernel executes a kernel on a set of fields.
func RunKernel(k *ir.Kernel, fields *Fields, opts ...Option) error {
	if err := Run(k.Body, fields, opts...); err != nil {
		return errors.WithMessagef(err, "kernel %s", k.Name)
	}
	return nil
}

func (m *machine) block(b *ir.Block) error {
	for i := 0; i < b.Len(); i++ {
		if err := m.stmt(b.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) set(stmt ir.Stmt, val float64) {
	if typ := stmt.Type(); typ.Valid() {
		val = convert(typ.DType, val)
	}
	m.values[stmt] = val
}

func (m *machine) stmt(stmt ir.Stmt) error {
	switch s := stmt.(type) {
	case *ir.AllocaStmt:
		m.locals[s] = 0
	case *ir.LocalLoadStmt:
		m.set(s, m.locals[s.Alloca])
	case *ir.LocalStoreStmt:
		m.locals[s.Alloca] = convert(s.Alloca.DType, m.values[s.Value])
	case *ir.ConstStmt:
		m.values[s] = convert(s.DType, s.Value)
	case *ir.UnaryOpStmt:
		return m.unary(s)
	case *ir.BinaryOpStmt:
		return m.binary(s)
	case *ir.TernaryOpStmt:
		if s.Op != ir.TernarySelect {
			return fmterr.Errorf(s, "ternary operator %s not supported", s.Op)
		}
		if m.values[s.Cond] != 0 {
			m.set(s, m.values[s.X])
		} else {
			m.set(s, m.values[s.Y])
		}
	case *ir.RangeAssumptionStmt:
		m.set(s, m.values[s.Input])
	case *ir.ElementShuffleStmt:
		return fmterr.NotImplementedf(s, "vector values")
	case *ir.GlobalPtrStmt:
		return m.globalPtr(s)
	case *ir.GlobalLoadStmt:
		c, err := m.scalarCell(s, s.Ptr)
		if err != nil {
			return err
		}
		m.set(s, m.fields.data[c.snode][c.pos])
	case *ir.GlobalStoreStmt:
		c, err := m.scalarCell(s, s.Ptr)
		if err != nil {
			return err
		}
		m.fields.data[c.snode][c.pos] = convert(c.snode.DType(), m.values[s.Value])
	case *ir.AtomicOpStmt:
		return m.atomic(s)
	case *ir.IfStmt:
		if m.values[s.Cond] != 0 {
			return m.block(s.True)
		}
		return m.block(s.False)
	case *ir.WhileStmt:
		return m.while(s)
	case *ir.WhileControlStmt:
		if m.values[s.Cond] == 0 {
			return errBreak
		}
	case *ir.RangeForStmt:
		return m.rangeFor(s)
	case *ir.StructForStmt:
		return m.structFor(s)
	case *ir.PrintStmt:
		_, err := fmt.Fprintf(m.out, "%s = %v\n", s.Label, m.values[s.Value])
		return err
	default:
		return fmterr.Internalf(stmt, "statement %T not supported by the interpreter", stmt)
	}
	return nil
}

func bitCast(x float64, from, to dtype.DataType) (float64, bool) {
	switch {
	case from == dtype.Float32 && to == dtype.Int32:
		return float64(int32(math.Float32bits(float32(x)))), true
	case from == dtype.Int32 && to == dtype.Float32:
		return float64(math.Float32frombits(uint32(int32(x)))), true
	case from == dtype.Float64 && to == dtype.Int64:
		return float64(int64(math.Float64bits(x))), true
	case from == dtype.Int64 && to == dtype.Float64:
		return math.Float64frombits(uint64(int64(x))), true
	case from == to:
		return x, true
	}
	return 0, false
}

func (m *machine) unary(s *ir.UnaryOpStmt) error {
	x := m.values[s.X]
	var z float64
	switch s.Op {
	case ir.UnaryNeg:
		z = -x
	case ir.UnarySqrt:
		z = math.Sqrt(x)
	case ir.UnaryFloor:
		z = math.Floor(x)
	case ir.UnaryAbs:
		z = math.Abs(x)
	case ir.UnarySin:
		z = math.Sin(x)
	case ir.UnaryCos:
		z = math.Cos(x)
	case ir.UnaryTan:
		z = math.Tan(x)
	case ir.UnaryTanh:
		z = math.Tanh(x)
	case ir.UnaryExp:
		z = math.Exp(x)
	case ir.UnaryLog:
		z = math.Log(x)
	case ir.UnaryLogicNot:
		z = boolToFloat(x == 0)
	case ir.UnaryBitNot:
		z = float64(^int64(x))
	case ir.UnaryCast:
		if s.CastByValue {
			z = convert(s.CastType, x)
			break
		}
		var ok bool
		if z, ok = bitCast(x, s.X.Type().DType, s.CastType); !ok {
			return fmterr.NotImplementedf(s, "bit cast from %s to %s", s.X.Type().DType, s.CastType)
		}
	default:
		return fmterr.Errorf(s, "unary operator %s not supported", s.Op)
	}
	m.set(s, z)
	return nil
}

func (m *machine) binary(s *ir.BinaryOpStmt) error {
	x, y := m.values[s.X], m.values[s.Y]
	integer := ir.IsInteger(s.X.Type().DType)
	var z float64
	switch s.Op {
	case ir.BinaryAdd:
		z = x + y
	case ir.BinarySub:
		z = x - y
	case ir.BinaryMul:
		z = x * y
	case ir.BinaryDiv:
		if integer {
			if y == 0 {
				return fmterr.Errorf(s, "integer division by zero")
			}
			z = float64(int64(x) / int64(y))
			break
		}
		z = x / y
	case ir.BinaryMod:
		if integer {
			if y == 0 {
				return fmterr.Errorf(s, "integer division by zero")
			}
			z = float64(int64(x) % int64(y))
			break
		}
		z = math.Mod(x, y)
	case ir.BinaryMax:
		z = math.Max(x, y)
	case ir.BinaryMin:
		z = math.Min(x, y)
	case ir.BinaryPow:
		z = math.Pow(x, y)
	case ir.BinaryBitAnd:
		z = float64(int64(x) & int64(y))
	case ir.BinaryBitOr:
		z = float64(int64(x) | int64(y))
	case ir.BinaryBitXor:
		z = float64(int64(x) ^ int64(y))
	case ir.BinaryCmpLT:
		z = boolToFloat(x < y)
	case ir.BinaryCmpLE:
		z = boolToFloat(x <= y)
	case ir.BinaryCmpGT:
		z = boolToFloat(x > y)
	case ir.BinaryCmpGE:
		z = boolToFloat(x >= y)
	case ir.BinaryCmpEQ:
		z = boolToFloat(x == y)
	case ir.BinaryCmpNE:
		z = boolToFloat(x != y)
	default:
		return fmterr.Errorf(s, "binary operator %s not supported", s.Op)
	}
	m.set(s, z)
	return nil
}

func (m *machine) globalPtr(s *ir.GlobalPtrStmt) error {
	index := make([]int, len(s.Indices))
	for i, idx := range s.Indices {
		index[i] = int(m.values[idx])
	}
	cells := make([]cell, len(s.SNodes))
	for i, snode := range s.SNodes {
		if _, err := m.fields.storage(snode); err != nil {
			return fmterr.At(s, err)
		}
		pos, err := offset(snode, index)
		if err != nil {
			return fmterr.At(s, err)
		}
		cells[i] = cell{snode: snode, pos: pos}
	}
	m.ptrs[s] = cells
	return nil
}

func (m *machine) scalarCell(user, ptr ir.Stmt) (cell, error) {
	cells, ok := m.ptrs[ptr]
	if !ok {
		return cell{}, fmterr.Internalf(user, "pointer has not been computed")
	}
	if len(cells) != 1 {
		return cell{}, fmterr.NotImplementedf(user, "access to %d fields at once", len(cells))
	}
	return cells[0], nil
}

func (m *machine) atomic(s *ir.AtomicOpStmt) error {
	c, err := m.scalarCell(s, s.Dest)
	if err != nil {
		return err
	}
	data := m.fields.data[c.snode]
	old, val := data[c.pos], m.values[s.Value]
	var z float64
	switch s.Op {
	case ir.AtomicAdd:
		z = old + val
	case ir.AtomicSub:
		z = old - val
	case ir.AtomicMax:
		z = math.Max(old, val)
	case ir.AtomicMin:
		z = math.Min(old, val)
	default:
		return fmterr.Errorf(s, "atomic operator %s not supported", s.Op)
	}
	data[c.pos] = convert(c.snode.DType(), z)
	m.set(s, old)
	return nil
}

func (m *machine) while(s *ir.WhileStmt) error {
	for i := 0; ; i++ {
		if i >= m.maxIters {
			return fmterr.Errorf(s, "while loop exceeded %d iterations", m.maxIters)
		}
		err := m.block(s.Body)
		if errors.Is(err, errBreak) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *machine) rangeFor(s *ir.RangeForStmt) error {
	begin, end := int(m.values[s.Begin]), int(m.values[s.End])
	for i := begin; i < end; i++ {
		m.locals[s.LoopVar] = float64(i)
		if err := m.block(s.Body); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) structFor(s *ir.StructForStmt) error {
	axes := s.SNode.Shape.AxisLengths
	if len(axes) != len(s.LoopVars) {
		return fmterr.Errorf(s, "%d loop variables for field %s of rank %d", len(s.LoopVars), s.SNode, len(axes))
	}
	index := make([]int, len(axes))
	for n := 0; n < s.SNode.Size(); n++ {
		// Decompose n into row-major indices.
		rem := n
		for i := len(axes) - 1; i >= 0; i-- {
			index[i] = rem % axes[i]
			rem /= axes[i]
		}
		for i, loopVar := range s.LoopVars {
			m.locals[loopVar] = float64(index[i])
		}
		if err := m.block(s.Body); err != nil {
			return err
		}
	}
	return nil
}
