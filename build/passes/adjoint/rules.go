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

package adjoint

import (
	"slices"

	"github.com/gx-org/kernelgrad/build/fmterr"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irstring"
)

func (p *Pass) visit(stmt ir.Stmt) error {
	switch s := stmt.(type) {
	case *ir.AllocaStmt:
		// Storage declarations have no adjoint.
		return nil
	case *ir.ConstStmt:
		return nil
	case *ir.RangeAssumptionStmt:
		return nil
	case *ir.GlobalPtrStmt:
		// Pointers only compute addresses.
		return nil
	case *ir.UnaryOpStmt:
		return p.unaryOp(s)
	case *ir.BinaryOpStmt:
		return p.binaryOp(s)
	case *ir.TernaryOpStmt:
		return p.ternaryOp(s)
	case *ir.LocalLoadStmt:
		p.cfg.Log().Warn("adjoint of local load ignored: only loop indices are supported", "stmt", irstring.Short(s))
		return nil
	case *ir.LocalStoreStmt:
		return fmterr.NotImplementedf(s, "adjoint of local store")
	case *ir.GlobalLoadStmt:
		return p.globalLoad(s)
	case *ir.GlobalStoreStmt:
		return p.globalStore(s)
	case *ir.AtomicOpStmt:
		return p.atomicOp(s)
	case *ir.RangeForStmt:
		p.cfg.Log().Warn("range for order not yet reversed")
		return p.visitBlock(s.Body)
	case *ir.StructForStmt:
		return p.visitBlock(s.Body)
	case *ir.IfStmt:
		return fmterr.NotImplementedf(s, "adjoint of conditional")
	case *ir.WhileStmt:
		return fmterr.NotImplementedf(s, "adjoint of while loop")
	case *ir.WhileControlStmt:
		return fmterr.NotImplementedf(s, "adjoint of while control")
	case *ir.PrintStmt:
		return fmterr.NotImplementedf(s, "adjoint of print")
	case *ir.ElementShuffleStmt:
		return fmterr.NotImplementedf(s, "adjoint of element shuffle")
	default:
		return fmterr.Internalf(stmt, "statement %T not supported by the adjoint pass", stmt)
	}
}

func (p *Pass) unaryOp(stmt *ir.UnaryOpStmt) error {
	x := stmt.X
	switch stmt.Op {
	case ir.UnaryFloor, ir.UnaryLogicNot, ir.UnaryBitNot:
		// Zero almost everywhere or not differentiable.
	case ir.UnaryNeg:
		p.accumulate(x, p.negate(p.adjoint(stmt)))
	case ir.UnarySin:
		p.accumulate(x, p.mul(p.adjoint(stmt), p.unary(ir.UnaryCos, x)))
	case ir.UnaryCos:
		p.accumulate(x, p.negate(p.mul(p.adjoint(stmt), p.unary(ir.UnarySin, x))))
	case ir.UnarySqrt:
		p.accumulate(x, p.mul(p.adjoint(stmt), p.div(p.constant(0.5), p.unary(ir.UnarySqrt, x))))
	case ir.UnaryExp:
		p.accumulate(x, p.mul(p.adjoint(stmt), p.unary(ir.UnaryExp, x)))
	case ir.UnaryLog:
		p.accumulate(x, p.div(p.adjoint(stmt), x))
	case ir.UnaryTanh:
		tanh := p.unary(ir.UnaryTanh, x)
		p.accumulate(x, p.mul(p.adjoint(stmt), p.sub(p.constant(1), p.mul(tanh, tanh))))
	case ir.UnaryCast:
		if stmt.CastByValue && ir.IsReal(stmt.CastType) {
			p.accumulate(x, p.load(p.adjoint(stmt)))
		}
	default:
		return fmterr.NotImplementedf(stmt, "adjoint of unary operator %s", stmt.Op)
	}
	return nil
}

func (p *Pass) binaryOp(stmt *ir.BinaryOpStmt) error {
	x, y := stmt.X, stmt.Y
	switch op := stmt.Op; {
	case op == ir.BinaryAdd:
		p.accumulate(x, p.load(p.adjoint(stmt)))
		p.accumulate(y, p.load(p.adjoint(stmt)))
	case op == ir.BinarySub:
		p.accumulate(x, p.load(p.adjoint(stmt)))
		p.accumulate(y, p.negate(p.adjoint(stmt)))
	case op == ir.BinaryMul:
		p.accumulate(x, p.mul(p.adjoint(stmt), y))
		p.accumulate(y, p.mul(p.adjoint(stmt), x))
	case op == ir.BinaryDiv:
		p.accumulate(x, p.div(p.adjoint(stmt), y))
		p.accumulate(y, p.negate(p.div(p.mul(p.adjoint(stmt), x), p.mul(y, y))))
	case op.IsComparison(), op.IsBitOp():
		// Not differentiable.
	default:
		return fmterr.NotImplementedf(stmt, "adjoint of binary operator %s", stmt.Op)
	}
	return nil
}

func (p *Pass) ternaryOp(stmt *ir.TernaryOpStmt) error {
	if stmt.Op != ir.TernarySelect {
		return fmterr.Preconditionf(stmt, "ternary operator %s is not a select", stmt.Op)
	}
	zero := p.bld.Const(0, stmt.Type().DType)
	p.accumulate(stmt.X, p.bld.Select(stmt.Cond, p.load(p.adjoint(stmt)), zero))
	p.accumulate(stmt.Y, p.bld.Select(stmt.Cond, zero, p.load(p.adjoint(stmt))))
	return nil
}

// gradPtr inserts a pointer to the gradient field cell matching
// the cell addressed by a primal pointer.
func (p *Pass) gradPtr(stmt ir.Stmt, ptr ir.Stmt) (*ir.GlobalPtrStmt, error) {
	primal, ok := ptr.(*ir.GlobalPtrStmt)
	if !ok {
		return nil, fmterr.Preconditionf(stmt, "%s is not a global pointer", irstring.Short(ptr))
	}
	if width := primal.Width(); width != 1 {
		return nil, fmterr.Preconditionf(stmt, "pointer addresses %d fields but want 1", width)
	}
	if typ := primal.Type(); typ.Valid() && typ.Width != 1 {
		return nil, fmterr.Preconditionf(stmt, "pointer has width %d but want 1", typ.Width)
	}
	snodes := slices.Clone(primal.SNodes)
	if snodes[0].Grad == nil {
		return nil, fmterr.Preconditionf(stmt, "field %s has no gradient field", snodes[0])
	}
	snodes[0] = snodes[0].Grad
	return p.bld.GlobalPtr(snodes, primal.Indices...), nil
}

func (p *Pass) globalLoad(stmt *ir.GlobalLoadStmt) error {
	adjPtr, err := p.gradPtr(stmt, stmt.Ptr)
	if err != nil {
		return err
	}
	p.bld.AtomicAdd(adjPtr, p.load(p.adjoint(stmt)))
	return nil
}

// eraseStore replaces a write into a field by a read of its gradient field
// accumulated into the adjoint of the written value.
func (p *Pass) eraseStore(stmt, ptr, value ir.Stmt, negate bool) error {
	adjPtr, err := p.gradPtr(stmt, ptr)
	if err != nil {
		return err
	}
	var grad ir.Stmt = p.bld.GlobalLoad(adjPtr)
	if negate {
		grad = p.negate(grad)
	}
	p.accumulate(value, grad)
	return p.bld.Erase(stmt)
}

func (p *Pass) globalStore(stmt *ir.GlobalStoreStmt) error {
	return p.eraseStore(stmt, stmt.Ptr, stmt.Value, false)
}

func (p *Pass) atomicOp(stmt *ir.AtomicOpStmt) error {
	switch stmt.Op {
	case ir.AtomicAdd:
		return p.eraseStore(stmt, stmt.Dest, stmt.Value, false)
	case ir.AtomicSub:
		return p.eraseStore(stmt, stmt.Dest, stmt.Value, true)
	default:
		return fmterr.NotImplementedf(stmt, "adjoint of atomic %s", stmt.Op)
	}
}
