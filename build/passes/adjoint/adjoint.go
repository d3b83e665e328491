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

// Package adjoint rewrites a kernel to compute the adjoints of its values.
//
// The pass implements reverse-mode automatic differentiation on the IR.
// Statements of each block are visited from the last to the first. For
// each statement, a rule emits statements at the end of the block
// propagating the adjoint of the statement to the adjoints of its operands.
// The adjoint of a statement is a local accumulator created the first
// time it is needed and inserted at the front of the block being processed.
//
// Writes to global fields are replaced by reads of their gradient fields,
// and reads of global fields become atomic additions into their gradient
// fields.
package adjoint

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/gx-org/kernelgrad/base/ordered"
	"github.com/gx-org/kernelgrad/build/fmterr"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irb"
	"github.com/gx-org/kernelgrad/build/ir/irstring"
	"github.com/gx-org/kernelgrad/build/typecheck"
)

// Pass is a run of the adjoint transform over one IR tree.
type Pass struct {
	cfg ir.Config
	bld *irb.Builder

	// adjoints maps primal statements to their accumulator.
	adjoints *ordered.Map[ir.Stmt, *ir.AllocaStmt]
	// err is the first error raised while emitting statements.
	err error
}

// New returns a new pass given a configuration.
func New(cfg ir.Config) *Pass {
	return &Pass{
		cfg:      cfg,
		bld:      irb.New(nil),
		adjoints: ordered.NewMap[ir.Stmt, *ir.AllocaStmt](),
	}
}

// MakeAdjoint rewrites the tree in place to compute the adjoints of its
// values, then type checks the result.
// If an error is returned, the tree is left in an undefined state
// and must be discarded.
func MakeAdjoint(root *ir.Block, cfg ir.Config) (*Pass, error) {
	p := New(cfg)
	if err := p.Run(root); err != nil {
		return nil, err
	}
	cfg.Log().Debug("make adjoint", "ir", irstring.String(root))
	if err := typecheck.Check(root); err != nil {
		return nil, errors.Wrap(err, "adjoint IR is invalid")
	}
	return p, nil
}

// Run the transform on a tree without type checking the result.
func (p *Pass) Run(root *ir.Block) error {
	return p.visitBlock(root)
}

// Adjoint returns the accumulator of a primal statement
// if the pass created one.
func (p *Pass) Adjoint(stmt ir.Stmt) (*ir.AllocaStmt, bool) {
	return p.adjoints.Load(stmt)
}

// NumAdjoints returns the number of accumulators created by the pass.
func (p *Pass) NumAdjoints() int {
	return p.adjoints.Size()
}

func (p *Pass) visitBlock(block *ir.Block) error {
	// Always work on a copy since rules modify the block.
	stmts := block.Statements()
	slices.Reverse(stmts)
	for _, stmt := range stmts {
		p.bld.SetBlock(block)
		if err := p.visit(stmt); err != nil {
			return err
		}
		if p.err != nil {
			return p.err
		}
	}
	return nil
}

func (p *Pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// adjoint returns the accumulator of a statement.
// The accumulator is created at the front of the current block
// the first time it is requested.
func (p *Pass) adjoint(stmt ir.Stmt) *ir.AllocaStmt {
	if width := stmt.Type().Width; width > 1 {
		p.fail(fmterr.Preconditionf(stmt, "cannot accumulate the adjoint of a value of width %d", width))
	}
	alloca, _ := p.adjoints.LoadOrCompute(stmt, func() *ir.AllocaStmt {
		alloca := &ir.AllocaStmt{Width: 1, DType: p.cfg.GradientDType}
		alloca.SetType(ir.Scalar(p.cfg.GradientDType))
		p.bld.InsertFront(alloca)
		return alloca
	})
	return alloca
}

// accumulate adds value to the adjoint of primal.
func (p *Pass) accumulate(primal, value ir.Stmt) {
	alloca := p.adjoint(primal)
	localLoad := p.bld.LocalLoad(alloca)
	p.bld.LocalStore(alloca, p.add(localLoad, value))
}

// load reads a value from a local accumulator.
// Other statements are returned as is.
func (p *Pass) load(stmt ir.Stmt) ir.Stmt {
	if alloca, ok := stmt.(*ir.AllocaStmt); ok {
		return p.bld.LocalLoad(alloca)
	}
	return stmt
}

func (p *Pass) constant(val float64) ir.Stmt {
	return p.bld.Const(val, p.cfg.GradientDType)
}

func (p *Pass) unary(op ir.UnaryOp, x ir.Stmt) ir.Stmt {
	return p.bld.Unary(op, p.load(x))
}

func (p *Pass) binary(op ir.BinaryOp, x, y ir.Stmt) ir.Stmt {
	return p.bld.Binary(op, p.load(x), p.load(y))
}

func (p *Pass) negate(x ir.Stmt) ir.Stmt {
	return p.unary(ir.UnaryNeg, x)
}

func (p *Pass) add(x, y ir.Stmt) ir.Stmt {
	return p.binary(ir.BinaryAdd, x, y)
}

func (p *Pass) sub(x, y ir.Stmt) ir.Stmt {
	return p.binary(ir.BinarySub, x, y)
}

func (p *Pass) mul(x, y ir.Stmt) ir.Stmt {
	return p.binary(ir.BinaryMul, x, y)
}

func (p *Pass) div(x, y ir.Stmt) ir.Stmt {
	return p.binary(ir.BinaryDiv, x, y)
}
