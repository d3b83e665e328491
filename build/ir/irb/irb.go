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

// Package irb inserts new statements in IR blocks.
//
// A builder has a cursor block. Each method constructs a statement,
// appends it at the end of the cursor block, and returns it so that
// it can be used immediately as an operand of another statement.
package irb

import (
	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
)

// Builder appends statements to a block.
type Builder struct {
	block *ir.Block
}

// New returns a builder appending statements to a block.
func New(block *ir.Block) *Builder {
	return &Builder{block: block}
}

// Block returns the block in which statements are inserted.
func (b *Builder) Block() *ir.Block {
	return b.block
}

// SetBlock sets the block in which statements are inserted.
func (b *Builder) SetBlock(block *ir.Block) {
	b.block = block
}

// Insert appends a statement to the block.
func (b *Builder) Insert(stmt ir.Stmt) ir.Stmt {
	return b.block.Append(stmt)
}

// InsertFront inserts a statement at the front of the block.
func (b *Builder) InsertFront(stmt ir.Stmt) ir.Stmt {
	return b.block.Insert(stmt, 0)
}

// Erase removes a statement from the block owning it.
func (b *Builder) Erase(stmt ir.Stmt) error {
	parent := stmt.Parent()
	if parent == nil {
		return errors.Errorf("cannot erase %T: statement does not belong to a block", stmt)
	}
	return parent.Erase(stmt)
}

func insert[T ir.Stmt](b *Builder, stmt T) T {
	b.block.Append(stmt)
	return stmt
}

// Alloca allocates a local variable of width 1.
func (b *Builder) Alloca(dt dtype.DataType) *ir.AllocaStmt {
	return insert(b, &ir.AllocaStmt{Width: 1, DType: dt})
}

// LocalLoad reads a local variable.
func (b *Builder) LocalLoad(alloca *ir.AllocaStmt) *ir.LocalLoadStmt {
	return insert(b, &ir.LocalLoadStmt{Alloca: alloca})
}

// LocalStore writes a value into a local variable.
func (b *Builder) LocalStore(alloca *ir.AllocaStmt, val ir.Stmt) *ir.LocalStoreStmt {
	return insert(b, &ir.LocalStoreStmt{Alloca: alloca, Value: val})
}

// Const returns a typed constant.
func (b *Builder) Const(val float64, dt dtype.DataType) *ir.ConstStmt {
	return insert(b, &ir.ConstStmt{Value: val, DType: dt})
}

// Unary applies a unary operator.
func (b *Builder) Unary(op ir.UnaryOp, x ir.Stmt) *ir.UnaryOpStmt {
	return insert(b, &ir.UnaryOpStmt{Op: op, X: x})
}

// Cast converts a value to another data type.
func (b *Builder) Cast(x ir.Stmt, dt dtype.DataType, byValue bool) *ir.UnaryOpStmt {
	return insert(b, &ir.UnaryOpStmt{
		Op:          ir.UnaryCast,
		X:           x,
		CastType:    dt,
		CastByValue: byValue,
	})
}

// Binary applies a binary operator.
func (b *Builder) Binary(op ir.BinaryOp, x, y ir.Stmt) *ir.BinaryOpStmt {
	return insert(b, &ir.BinaryOpStmt{Op: op, X: x, Y: y})
}

// Select returns x if cond is true, y otherwise.
func (b *Builder) Select(cond, x, y ir.Stmt) *ir.TernaryOpStmt {
	return insert(b, &ir.TernaryOpStmt{Op: ir.TernarySelect, Cond: cond, X: x, Y: y})
}

// RangeAssumption asserts that input is in [base+low, base+high).
func (b *Builder) RangeAssumption(input, base ir.Stmt, low, high int) *ir.RangeAssumptionStmt {
	return insert(b, &ir.RangeAssumptionStmt{Input: input, Base: base, Low: low, High: high})
}

// ElementShuffle builds a vector from scalars.
func (b *Builder) ElementShuffle(elements ...ir.Stmt) *ir.ElementShuffleStmt {
	return insert(b, &ir.ElementShuffleStmt{Elements: elements})
}

// GlobalPtr returns a pointer to a cell of one or more fields.
func (b *Builder) GlobalPtr(snodes []*ir.SNode, indices ...ir.Stmt) *ir.GlobalPtrStmt {
	return insert(b, &ir.GlobalPtrStmt{
		SNodes:  append([]*ir.SNode{}, snodes...),
		Indices: append([]ir.Stmt{}, indices...),
	})
}

// FieldPtr returns a pointer to a cell of a single field.
func (b *Builder) FieldPtr(snode *ir.SNode, indices ...ir.Stmt) *ir.GlobalPtrStmt {
	return b.GlobalPtr([]*ir.SNode{snode}, indices...)
}

// GlobalLoad reads a field cell.
func (b *Builder) GlobalLoad(ptr ir.Stmt) *ir.GlobalLoadStmt {
	return insert(b, &ir.GlobalLoadStmt{Ptr: ptr})
}

// GlobalStore writes a value into a field cell.
func (b *Builder) GlobalStore(ptr, val ir.Stmt) *ir.GlobalStoreStmt {
	return insert(b, &ir.GlobalStoreStmt{Ptr: ptr, Value: val})
}

// AtomicOp atomically updates a field cell.
func (b *Builder) AtomicOp(op ir.AtomicOp, dest, val ir.Stmt) *ir.AtomicOpStmt {
	return insert(b, &ir.AtomicOpStmt{Op: op, Dest: dest, Value: val})
}

// AtomicAdd atomically adds a value to a field cell.
func (b *Builder) AtomicAdd(dest, val ir.Stmt) *ir.AtomicOpStmt {
	return b.AtomicOp(ir.AtomicAdd, dest, val)
}

// Print prints a value.
func (b *Builder) Print(label string, val ir.Stmt) *ir.PrintStmt {
	return insert(b, &ir.PrintStmt{Label: label, Value: val})
}

// If builds a conditional. Either callback may be nil.
func (b *Builder) If(cond ir.Stmt, then, els func(*Builder)) *ir.IfStmt {
	stmt := &ir.IfStmt{Cond: cond}
	stmt.True = ir.NewBlock(stmt)
	stmt.False = ir.NewBlock(stmt)
	insert(b, stmt)
	if then != nil {
		then(New(stmt.True))
	}
	if els != nil {
		els(New(stmt.False))
	}
	return stmt
}

// While builds a loop. The body must include a WhileControl statement to exit.
func (b *Builder) While(body func(*Builder)) *ir.WhileStmt {
	stmt := &ir.WhileStmt{}
	stmt.Body = ir.NewBlock(stmt)
	insert(b, stmt)
	body(New(stmt.Body))
	return stmt
}

// WhileControl exits the enclosing while loop when cond is false.
func (b *Builder) WhileControl(cond ir.Stmt) *ir.WhileControlStmt {
	return insert(b, &ir.WhileControlStmt{Cond: cond})
}

// RangeFor builds a loop over [begin, end).
// The loop variable is allocated in the current block.
// The body callback receives a builder for the loop body
// and a load of the loop index at the beginning of the body.
func (b *Builder) RangeFor(begin, end ir.Stmt, body func(*Builder, ir.Stmt)) *ir.RangeForStmt {
	loopVar := b.Alloca(dtype.Int32)
	stmt := &ir.RangeForStmt{LoopVar: loopVar, Begin: begin, End: end}
	stmt.Body = ir.NewBlock(stmt)
	insert(b, stmt)
	bodyB := New(stmt.Body)
	body(bodyB, bodyB.LocalLoad(loopVar))
	return stmt
}

// StructFor builds a loop over all the cells of a field.
// The loop variables are allocated in the current block.
// The body callback receives a builder for the loop body
// and a load of each loop index at the beginning of the body.
func (b *Builder) StructFor(snode *ir.SNode, body func(*Builder, []ir.Stmt)) *ir.StructForStmt {
	loopVars := make([]*ir.AllocaStmt, snode.Rank())
	for i := range loopVars {
		loopVars[i] = b.Alloca(dtype.Int32)
	}
	stmt := &ir.StructForStmt{SNode: snode, LoopVars: loopVars}
	stmt.Body = ir.NewBlock(stmt)
	insert(b, stmt)
	bodyB := New(stmt.Body)
	indices := make([]ir.Stmt, len(loopVars))
	for i, loopVar := range loopVars {
		indices[i] = bodyB.LocalLoad(loopVar)
	}
	body(bodyB, indices)
	return stmt
}
