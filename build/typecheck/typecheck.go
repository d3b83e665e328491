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

// Package typecheck infers and checks the types of an IR tree.
//
// The checker walks blocks forward. It sets the type of every statement,
// checks that operands are defined before being used, and splices
// implicit casts when numeric operands do not have the same data type.
package typecheck

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irstring"
	"go.uber.org/multierr"
)

// TypeError is an error found by the type checker.
type TypeError struct {
	Stmt ir.Stmt
	Msg  string
}

func (err *TypeError) Error() string {
	return fmt.Sprintf("type error: %s: %s", irstring.Short(err.Stmt), err.Msg)
}

type checker struct {
	err error
}

// Check infers the types of all the statements of a tree
// and checks that the tree is well-formed.
// All the errors found are returned, combined with multierr.
func Check(root *ir.Block) error {
	c := &checker{}
	c.block(root)
	return c.err
}

func (c *checker) errorf(stmt ir.Stmt, format string, a ...any) bool {
	c.err = multierr.Append(c.err, &TypeError{Stmt: stmt, Msg: fmt.Sprintf(format, a...)})
	return false
}

func (c *checker) block(b *ir.Block) {
	if b == nil {
		return
	}
	// Casts may be inserted in the block while it is being checked.
	for _, stmt := range b.Statements() {
		if !c.operandsDefined(stmt) {
			continue
		}
		c.stmt(stmt)
		for _, nested := range ir.Blocks(stmt) {
			c.block(nested)
		}
	}
}

// definedBefore returns true if operand is defined before user
// in the block of user or in one of its enclosing blocks.
func definedBefore(user, operand ir.Stmt) bool {
	anchor := user
	for blk := user.Parent(); blk != nil; blk = blk.Enclosing() {
		if blk == operand.Parent() {
			return blk.Index(operand) < blk.Index(anchor)
		}
		anchor = blk.Owner()
	}
	return false
}

func (c *checker) operandsDefined(stmt ir.Stmt) bool {
	ok := true
	for i, operand := range ir.Operands(stmt) {
		switch {
		case operand == nil:
			ok = c.errorf(stmt, "operand %d is missing", i)
		case operand.Parent() == nil:
			ok = c.errorf(stmt, "operand %d (%s) has been erased or never inserted", i, irstring.Short(operand))
		case !definedBefore(stmt, operand):
			ok = c.errorf(stmt, "operand %d (%s) is not defined before its use", i, irstring.Short(operand))
		}
	}
	return ok
}

func rank(dt dtype.DataType) int {
	switch dt {
	case dtype.Bool:
		return 1
	case dtype.Int32:
		return 2
	case dtype.Int64:
		return 3
	case dtype.Float32:
		return 4
	case dtype.Float64:
		return 5
	}
	return 0
}

func isNumeric(dt dtype.DataType) bool {
	return ir.IsReal(dt) || ir.IsInteger(dt)
}

// promote returns the data type to which both data types are converted.
func promote(x, y dtype.DataType) dtype.DataType {
	if rank(x) >= rank(y) {
		return x
	}
	return y
}

// castTo returns val if it is already of the target type.
// Otherwise, it inserts a cast of val just before user and returns the cast.
func (c *checker) castTo(user, val ir.Stmt, target dtype.DataType) ir.Stmt {
	if val.Type().DType == target {
		return val
	}
	cast := &ir.UnaryOpStmt{
		Op:          ir.UnaryCast,
		X:           val,
		CastType:    target,
		CastByValue: true,
	}
	cast.SetType(ir.Scalar(target))
	if err := user.Parent().InsertBefore(user, cast); err != nil {
		c.errorf(user, "cannot insert implicit cast: %v", err)
		return val
	}
	return cast
}

func (c *checker) scalar(user, val ir.Stmt, what string) (dtype.DataType, bool) {
	typ := val.Type()
	if !typ.Valid() {
		return typ.DType, c.errorf(user, "%s (%s) has no value", what, irstring.Short(val))
	}
	if typ.Width != 1 {
		return typ.DType, c.errorf(user, "%s has type %s but want a scalar", what, typ)
	}
	return typ.DType, true
}

func (c *checker) integer(user, val ir.Stmt, what string) bool {
	dt, ok := c.scalar(user, val, what)
	if !ok {
		return false
	}
	if !ir.IsInteger(dt) {
		return c.errorf(user, "%s has type %s but want an integer", what, dt)
	}
	return true
}

func (c *checker) condition(user, val ir.Stmt) bool {
	dt, ok := c.scalar(user, val, "condition")
	if !ok {
		return false
	}
	if dt != dtype.Bool && !ir.IsInteger(dt) {
		return c.errorf(user, "condition has type %s but want a boolean or an integer", dt)
	}
	return true
}

func (c *checker) globalPtr(user, ptr ir.Stmt) (*ir.GlobalPtrStmt, bool) {
	gptr, ok := ptr.(*ir.GlobalPtrStmt)
	if !ok {
		return nil, c.errorf(user, "%s is not a global pointer", irstring.Short(ptr))
	}
	return gptr, gptr.Type().Valid()
}

func (c *checker) stmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case *ir.AllocaStmt:
		if s.Width < 1 {
			c.errorf(s, "invalid width %d", s.Width)
			return
		}
		s.SetType(ir.Type{Width: s.Width, DType: s.DType})
	case *ir.LocalLoadStmt:
		s.SetType(ir.Scalar(s.Alloca.DType))
	case *ir.LocalStoreStmt:
		if _, ok := c.scalar(s, s.Value, "stored value"); !ok {
			return
		}
		s.Value = c.castTo(s, s.Value, s.Alloca.DType)
	case *ir.ConstStmt:
		s.SetType(ir.Scalar(s.DType))
	case *ir.UnaryOpStmt:
		c.unary(s)
	case *ir.BinaryOpStmt:
		c.binary(s)
	case *ir.TernaryOpStmt:
		c.ternary(s)
	case *ir.RangeAssumptionStmt:
		if !c.integer(s, s.Input, "input") || !c.integer(s, s.Base, "base") {
			return
		}
		s.SetType(s.Input.Type())
	case *ir.ElementShuffleStmt:
		c.elementShuffle(s)
	case *ir.GlobalPtrStmt:
		c.globalPtrStmt(s)
	case *ir.GlobalLoadStmt:
		ptr, ok := c.globalPtr(s, s.Ptr)
		if !ok {
			return
		}
		s.SetType(ptr.Type())
	case *ir.GlobalStoreStmt:
		ptr, ok := c.globalPtr(s, s.Ptr)
		if !ok {
			return
		}
		if _, ok := c.scalar(s, s.Value, "stored value"); !ok {
			return
		}
		s.Value = c.castTo(s, s.Value, ptr.Type().DType)
	case *ir.AtomicOpStmt:
		ptr, ok := c.globalPtr(s, s.Dest)
		if !ok {
			return
		}
		if s.Op < ir.AtomicAdd || s.Op > ir.AtomicMin {
			c.errorf(s, "invalid atomic operator %s", s.Op)
			return
		}
		if _, ok := c.scalar(s, s.Value, "operand"); !ok {
			return
		}
		s.Value = c.castTo(s, s.Value, ptr.Type().DType)
		s.SetType(ptr.Type())
	case *ir.IfStmt:
		c.condition(s, s.Cond)
	case *ir.WhileStmt:
	case *ir.WhileControlStmt:
		c.condition(s, s.Cond)
		if !insideWhile(s) {
			c.errorf(s, "while control outside of a while loop")
		}
	case *ir.RangeForStmt:
		c.integer(s, s.LoopVar, "loop variable")
		c.integer(s, s.Begin, "range begin")
		c.integer(s, s.End, "range end")
	case *ir.StructForStmt:
		if len(s.LoopVars) != s.SNode.Rank() {
			c.errorf(s, "%d loop variables for field %s of rank %d", len(s.LoopVars), s.SNode, s.SNode.Rank())
		}
	case *ir.PrintStmt:
		c.scalar(s, s.Value, "printed value")
	default:
		c.errorf(stmt, "statement %T not supported", stmt)
	}
}

func insideWhile(stmt ir.Stmt) bool {
	for blk := stmt.Parent(); blk != nil; blk = blk.Enclosing() {
		if _, ok := blk.Owner().(*ir.WhileStmt); ok {
			return true
		}
	}
	return false
}

func (c *checker) unary(s *ir.UnaryOpStmt) {
	dt, ok := c.scalar(s, s.X, "operand")
	if !ok {
		return
	}
	switch s.Op {
	case ir.UnaryCast:
		if !isNumeric(s.CastType) && s.CastType != dtype.Bool {
			c.errorf(s, "cannot cast to %s", s.CastType)
			return
		}
		s.SetType(ir.Scalar(s.CastType))
	case ir.UnaryLogicNot:
		s.SetType(ir.Scalar(dtype.Bool))
	case ir.UnaryBitNot:
		if !ir.IsInteger(dt) {
			c.errorf(s, "operand has type %s but want an integer", dt)
			return
		}
		s.SetType(ir.Scalar(dt))
	case ir.UnaryNeg, ir.UnaryAbs, ir.UnaryFloor:
		if !isNumeric(dt) {
			c.errorf(s, "operand has type %s but want a number", dt)
			return
		}
		s.SetType(ir.Scalar(dt))
	case ir.UnarySqrt, ir.UnarySin, ir.UnaryCos, ir.UnaryTan, ir.UnaryTanh, ir.UnaryExp, ir.UnaryLog:
		if !ir.IsReal(dt) {
			c.errorf(s, "operand has type %s but want a floating point number", dt)
			return
		}
		s.SetType(ir.Scalar(dt))
	default:
		c.errorf(s, "invalid unary operator %s", s.Op)
	}
}

func (c *checker) binary(s *ir.BinaryOpStmt) {
	xt, xOk := c.scalar(s, s.X, "left operand")
	yt, yOk := c.scalar(s, s.Y, "right operand")
	if !xOk || !yOk {
		return
	}
	if s.Op.IsBitOp() {
		if xt != yt || !(ir.IsInteger(xt) || xt == dtype.Bool) {
			c.errorf(s, "bit operator %s on %s and %s", s.Op, xt, yt)
			return
		}
		s.SetType(ir.Scalar(xt))
		return
	}
	if !isNumeric(xt) || !isNumeric(yt) {
		c.errorf(s, "arithmetic operator %s on %s and %s", s.Op, xt, yt)
		return
	}
	target := promote(xt, yt)
	s.X = c.castTo(s, s.X, target)
	s.Y = c.castTo(s, s.Y, target)
	switch {
	case s.Op.IsComparison():
		s.SetType(ir.Scalar(dtype.Bool))
	case s.Op >= ir.BinaryAdd && s.Op <= ir.BinaryPow:
		s.SetType(ir.Scalar(target))
	default:
		c.errorf(s, "invalid binary operator %s", s.Op)
	}
}

func (c *checker) ternary(s *ir.TernaryOpStmt) {
	if s.Op != ir.TernarySelect {
		c.errorf(s, "invalid ternary operator %s", s.Op)
		return
	}
	if !c.condition(s, s.Cond) {
		return
	}
	xt, xOk := c.scalar(s, s.X, "true operand")
	yt, yOk := c.scalar(s, s.Y, "false operand")
	if !xOk || !yOk {
		return
	}
	if xt == yt {
		s.SetType(ir.Scalar(xt))
		return
	}
	if !isNumeric(xt) || !isNumeric(yt) {
		c.errorf(s, "select between %s and %s", xt, yt)
		return
	}
	target := promote(xt, yt)
	s.X = c.castTo(s, s.X, target)
	s.Y = c.castTo(s, s.Y, target)
	s.SetType(ir.Scalar(target))
}

func (c *checker) elementShuffle(s *ir.ElementShuffleStmt) {
	if len(s.Elements) == 0 {
		c.errorf(s, "empty element shuffle")
		return
	}
	var dt dtype.DataType
	for i, el := range s.Elements {
		elt, ok := c.scalar(s, el, "element")
		if !ok {
			return
		}
		if i == 0 {
			dt = elt
		} else if elt != dt {
			c.errorf(s, "element %d has type %s but want %s", i, elt, dt)
			return
		}
	}
	s.SetType(ir.Type{Width: len(s.Elements), DType: dt})
}

func (c *checker) globalPtrStmt(s *ir.GlobalPtrStmt) {
	if len(s.SNodes) == 0 {
		c.errorf(s, "pointer without field")
		return
	}
	dt := s.SNodes[0].DType()
	for _, snode := range s.SNodes {
		if snode.DType() != dt {
			c.errorf(s, "field %s has type %s but want %s", snode, snode.DType(), dt)
			return
		}
		if snode.Rank() != len(s.Indices) {
			c.errorf(s, "field %s has rank %d but got %d indices", snode, snode.Rank(), len(s.Indices))
			return
		}
	}
	for _, index := range s.Indices {
		if !c.integer(s, index, "index") {
			return
		}
	}
	s.SetType(ir.Type{Width: len(s.SNodes), DType: dt})
}
