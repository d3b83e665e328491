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

// Package ir is the kernel Intermediate Representation (IR).
//
// A kernel is a tree of blocks. A block is an ordered list of statements
// and owns them. Statements refer to other statements as operands: these
// references are dependency edges, not ownership. Loop bodies and branches
// are blocks nested inside the statement owning them.
package ir

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
)

// ----------------------------------------------------------------------------
// Types of node in the tree.
type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()
	}

	// Stmt is a statement in a block.
	// The set of statements is closed: only the statements
	// defined in this package implement the interface.
	Stmt interface {
		Node

		// Parent returns the block owning the statement.
		// Returns nil if the statement has not been inserted
		// in a block yet or if it has been erased.
		Parent() *Block

		// Type returns the type of the value computed by the statement.
		// The type may be invalid until the type checker has run.
		Type() Type

		// SetType sets the type of the value computed by the statement.
		SetType(Type)

		base() *stmtBase
	}

	stmtBase struct {
		parent *Block
		typ    Type
	}
)

func (*stmtBase) node() {}

func (s *stmtBase) base() *stmtBase {
	return s
}

// Parent returns the block owning the statement.
func (s *stmtBase) Parent() *Block {
	return s.parent
}

// Type of the value computed by the statement.
func (s *stmtBase) Type() Type {
	return s.typ
}

// SetType sets the type of the statement.
func (s *stmtBase) SetType(typ Type) {
	s.typ = typ
}

// ----------------------------------------------------------------------------
// Types.

// Type is the type of a value: a data type and a number of lanes.
type Type struct {
	Width int
	DType dtype.DataType
}

// Scalar returns a type of width 1.
func Scalar(dt dtype.DataType) Type {
	return Type{Width: 1, DType: dt}
}

// Valid returns true if the type has been set.
func (t Type) Valid() bool {
	return t.Width > 0
}

func (t Type) String() string {
	if !t.Valid() {
		return "<untyped>"
	}
	if t.Width == 1 {
		return t.DType.String()
	}
	return fmt.Sprintf("%sx%d", t.DType.String(), t.Width)
}

// IsReal returns true if the data type is a floating point type.
func IsReal(dt dtype.DataType) bool {
	switch dt {
	case dtype.Float32, dtype.Float64:
		return true
	}
	return false
}

// IsInteger returns true if the data type is an integer type.
func IsInteger(dt dtype.DataType) bool {
	switch dt {
	case dtype.Int32, dtype.Int64:
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Local storage.
type (
	// AllocaStmt allocates a local variable.
	AllocaStmt struct {
		stmtBase
		Width int
		DType dtype.DataType
	}

	// LocalLoadStmt reads the first lane of a local variable.
	LocalLoadStmt struct {
		stmtBase
		Alloca *AllocaStmt
	}

	// LocalStoreStmt writes a value into a local variable.
	LocalStoreStmt struct {
		stmtBase
		Alloca *AllocaStmt
		Value  Stmt
	}
)

// ----------------------------------------------------------------------------
// Arithmetic.
type (
	// ConstStmt is a typed constant.
	ConstStmt struct {
		stmtBase
		Value float64
		DType dtype.DataType
	}

	// UnaryOpStmt applies a unary operator to an operand.
	UnaryOpStmt struct {
		stmtBase
		Op UnaryOp
		X  Stmt

		// CastType is the target type of a cast.
		CastType dtype.DataType
		// CastByValue is true if the cast converts the value
		// (as opposed to reinterpreting its bits).
		CastByValue bool
	}

	// BinaryOpStmt applies a binary operator to two operands.
	BinaryOpStmt struct {
		stmtBase
		Op   BinaryOp
		X, Y Stmt
	}

	// TernaryOpStmt applies a ternary operator to three operands.
	TernaryOpStmt struct {
		stmtBase
		Op   TernaryOp
		Cond Stmt
		X, Y Stmt
	}

	// RangeAssumptionStmt tells the compiler that Input is in [Base+Low, Base+High).
	// The value of the statement is Input.
	RangeAssumptionStmt struct {
		stmtBase
		Input, Base Stmt
		Low, High   int
	}

	// ElementShuffleStmt builds a vector from scalar elements.
	ElementShuffleStmt struct {
		stmtBase
		Elements []Stmt
	}
)

// ----------------------------------------------------------------------------
// Global storage.
type (
	// GlobalPtrStmt computes the address of a cell in one or more fields.
	// Each field is one lane of the pointer.
	GlobalPtrStmt struct {
		stmtBase
		SNodes  []*SNode
		Indices []Stmt
	}

	// GlobalLoadStmt reads a field cell.
	GlobalLoadStmt struct {
		stmtBase
		Ptr Stmt
	}

	// GlobalStoreStmt writes a value into a field cell.
	GlobalStoreStmt struct {
		stmtBase
		Ptr   Stmt
		Value Stmt
	}

	// AtomicOpStmt atomically updates a field cell with a value.
	AtomicOpStmt struct {
		stmtBase
		Op    AtomicOp
		Dest  Stmt
		Value Stmt
	}
)

// Width returns the number of lanes addressed by the pointer.
func (s *GlobalPtrStmt) Width() int {
	return len(s.SNodes)
}

// ----------------------------------------------------------------------------
// Control flow.
type (
	// IfStmt executes one of two blocks given a condition.
	IfStmt struct {
		stmtBase
		Cond  Stmt
		True  *Block
		False *Block
	}

	// WhileStmt executes its body until a WhileControlStmt stops it.
	WhileStmt struct {
		stmtBase
		Body *Block
	}

	// WhileControlStmt breaks out of the enclosing while loop
	// when its condition is false.
	WhileControlStmt struct {
		stmtBase
		Cond Stmt
	}

	// RangeForStmt executes its body for each integer in [Begin, End).
	// The loop index is written in LoopVar at each iteration.
	RangeForStmt struct {
		stmtBase
		LoopVar    *AllocaStmt
		Begin, End Stmt
		Body       *Block
	}

	// StructForStmt executes its body for each cell of a field.
	// The indices of the cell are written in LoopVars, one per axis.
	StructForStmt struct {
		stmtBase
		SNode    *SNode
		LoopVars []*AllocaStmt
		Body     *Block
	}

	// PrintStmt prints a value with a label.
	PrintStmt struct {
		stmtBase
		Label string
		Value Stmt
	}
)

// Kernel is a named root block.
type Kernel struct {
	Name string
	Body *Block
}

// NewKernel returns a kernel with an empty body.
func NewKernel(name string) *Kernel {
	return &Kernel{Name: name, Body: NewBlock(nil)}
}

// Operands returns the statements used as values by a statement.
func Operands(stmt Stmt) []Stmt {
	switch s := stmt.(type) {
	case *AllocaStmt, *ConstStmt:
		return nil
	case *LocalLoadStmt:
		return []Stmt{s.Alloca}
	case *LocalStoreStmt:
		return []Stmt{s.Alloca, s.Value}
	case *UnaryOpStmt:
		return []Stmt{s.X}
	case *BinaryOpStmt:
		return []Stmt{s.X, s.Y}
	case *TernaryOpStmt:
		return []Stmt{s.Cond, s.X, s.Y}
	case *RangeAssumptionStmt:
		return []Stmt{s.Input, s.Base}
	case *ElementShuffleStmt:
		return append([]Stmt{}, s.Elements...)
	case *GlobalPtrStmt:
		return append([]Stmt{}, s.Indices...)
	case *GlobalLoadStmt:
		return []Stmt{s.Ptr}
	case *GlobalStoreStmt:
		return []Stmt{s.Ptr, s.Value}
	case *AtomicOpStmt:
		return []Stmt{s.Dest, s.Value}
	case *IfStmt:
		return []Stmt{s.Cond}
	case *WhileStmt:
		return nil
	case *WhileControlStmt:
		return []Stmt{s.Cond}
	case *RangeForStmt:
		return []Stmt{s.LoopVar, s.Begin, s.End}
	case *StructForStmt:
		operands := make([]Stmt, len(s.LoopVars))
		for i, v := range s.LoopVars {
			operands[i] = v
		}
		return operands
	case *PrintStmt:
		return []Stmt{s.Value}
	default:
		panic(fmt.Sprintf("statement type %T not supported", stmt))
	}
}

// Blocks returns the blocks nested in a statement.
func Blocks(stmt Stmt) []*Block {
	switch s := stmt.(type) {
	case *IfStmt:
		return []*Block{s.True, s.False}
	case *WhileStmt:
		return []*Block{s.Body}
	case *RangeForStmt:
		return []*Block{s.Body}
	case *StructForStmt:
		return []*Block{s.Body}
	default:
		return nil
	}
}
