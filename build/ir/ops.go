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

import "fmt"

// UnaryOp is a unary operator.
type UnaryOp int

// Unary operators.
const (
	UnaryInvalid UnaryOp = iota
	UnaryNeg
	UnarySqrt
	UnaryFloor
	UnaryCast
	UnaryAbs
	UnarySin
	UnaryCos
	UnaryTan
	UnaryTanh
	UnaryExp
	UnaryLog
	UnaryLogicNot
	UnaryBitNot
)

var unaryNames = map[UnaryOp]string{
	UnaryNeg:      "neg",
	UnarySqrt:     "sqrt",
	UnaryFloor:    "floor",
	UnaryCast:     "cast",
	UnaryAbs:      "abs",
	UnarySin:      "sin",
	UnaryCos:      "cos",
	UnaryTan:      "tan",
	UnaryTanh:     "tanh",
	UnaryExp:      "exp",
	UnaryLog:      "log",
	UnaryLogicNot: "logic_not",
	UnaryBitNot:   "bit_not",
}

func (op UnaryOp) String() string {
	if s, ok := unaryNames[op]; ok {
		return s
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// BinaryOp is a binary operator.
type BinaryOp int

// Binary operators.
const (
	BinaryInvalid BinaryOp = iota
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryMax
	BinaryMin
	BinaryPow
	BinaryBitAnd
	BinaryBitOr
	BinaryBitXor
	BinaryCmpLT
	BinaryCmpLE
	BinaryCmpGT
	BinaryCmpGE
	BinaryCmpEQ
	BinaryCmpNE
)

var binaryNames = map[BinaryOp]string{
	BinaryAdd:    "add",
	BinarySub:    "sub",
	BinaryMul:    "mul",
	BinaryDiv:    "div",
	BinaryMod:    "mod",
	BinaryMax:    "max",
	BinaryMin:    "min",
	BinaryPow:    "pow",
	BinaryBitAnd: "bit_and",
	BinaryBitOr:  "bit_or",
	BinaryBitXor: "bit_xor",
	BinaryCmpLT:  "cmp_lt",
	BinaryCmpLE:  "cmp_le",
	BinaryCmpGT:  "cmp_gt",
	BinaryCmpGE:  "cmp_ge",
	BinaryCmpEQ:  "cmp_eq",
	BinaryCmpNE:  "cmp_ne",
}

func (op BinaryOp) String() string {
	if s, ok := binaryNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// IsComparison returns true if the operator compares its operands.
func (op BinaryOp) IsComparison() bool {
	return op >= BinaryCmpLT && op <= BinaryCmpNE
}

// IsBitOp returns true if the operator is a bitwise operator.
func (op BinaryOp) IsBitOp() bool {
	return op >= BinaryBitAnd && op <= BinaryBitXor
}

// TernaryOp is a ternary operator.
type TernaryOp int

// Ternary operators.
const (
	TernaryInvalid TernaryOp = iota
	TernarySelect
)

func (op TernaryOp) String() string {
	if op == TernarySelect {
		return "select"
	}
	return fmt.Sprintf("TernaryOp(%d)", int(op))
}

// AtomicOp is an atomic read-modify-write operator.
type AtomicOp int

// Atomic operators.
const (
	AtomicInvalid AtomicOp = iota
	AtomicAdd
	AtomicSub
	AtomicMax
	AtomicMin
)

var atomicNames = map[AtomicOp]string{
	AtomicAdd: "add",
	AtomicSub: "sub",
	AtomicMax: "max",
	AtomicMin: "min",
}

func (op AtomicOp) String() string {
	if s, ok := atomicNames[op]; ok {
		return s
	}
	return fmt.Sprintf("AtomicOp(%d)", int(op))
}
