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

// Package irstring builds a string representation of an IR tree.
//
// Statements are named $0, $1, ... in the order in which they are
// first printed or referenced.
package irstring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gx-org/kernelgrad/build/ir"
)

type printer struct {
	names map[ir.Stmt]string
	out   strings.Builder
	depth int
}

func newPrinter() *printer {
	return &printer{names: make(map[ir.Stmt]string)}
}

func (p *printer) name(stmt ir.Stmt) string {
	if stmt == nil {
		return "<nil>"
	}
	if name, ok := p.names[stmt]; ok {
		return name
	}
	name := "$" + strconv.Itoa(len(p.names))
	p.names[stmt] = name
	return name
}

func (p *printer) nameList(stmts []ir.Stmt) string {
	names := make([]string, len(stmts))
	for i, stmt := range stmts {
		names[i] = p.name(stmt)
	}
	return strings.Join(names, ", ")
}

func (p *printer) line(format string, a ...any) {
	p.out.WriteString(strings.Repeat("\t", p.depth))
	p.out.WriteString(fmt.Sprintf(format, a...))
	p.out.WriteString("\n")
}

func (p *printer) block(b *ir.Block) {
	if b == nil {
		return
	}
	p.depth++
	for _, stmt := range b.Statements() {
		p.stmt(stmt)
	}
	p.depth--
}

func snodeNames(snodes []*ir.SNode) string {
	names := make([]string, len(snodes))
	for i, snode := range snodes {
		names[i] = snode.Name
	}
	return strings.Join(names, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (p *printer) stmt(stmt ir.Stmt) {
	n := p.name(stmt)
	switch s := stmt.(type) {
	case *ir.AllocaStmt:
		p.line("%s = alloca %s", n, ir.Type{Width: s.Width, DType: s.DType})
	case *ir.LocalLoadStmt:
		p.line("%s = local load [%s]", n, p.name(s.Alloca))
	case *ir.LocalStoreStmt:
		p.line("%s : local store [%s <- %s]", n, p.name(s.Alloca), p.name(s.Value))
	case *ir.ConstStmt:
		p.line("%s = const %s (%s)", n, formatFloat(s.Value), s.DType)
	case *ir.UnaryOpStmt:
		if s.Op == ir.UnaryCast {
			mode := "by bits"
			if s.CastByValue {
				mode = "by value"
			}
			p.line("%s = cast %s -> %s %s", n, p.name(s.X), s.CastType, mode)
			return
		}
		p.line("%s = %s %s", n, s.Op, p.name(s.X))
	case *ir.BinaryOpStmt:
		p.line("%s = %s %s %s", n, s.Op, p.name(s.X), p.name(s.Y))
	case *ir.TernaryOpStmt:
		p.line("%s = %s %s %s %s", n, s.Op, p.name(s.Cond), p.name(s.X), p.name(s.Y))
	case *ir.RangeAssumptionStmt:
		p.line("%s = assume_in_range(%s + [%d, %d), %s)", n, p.name(s.Base), s.Low, s.High, p.name(s.Input))
	case *ir.ElementShuffleStmt:
		p.line("%s = shuffle (%s)", n, p.nameList(s.Elements))
	case *ir.GlobalPtrStmt:
		p.line("%s = global ptr [%s], index (%s)", n, snodeNames(s.SNodes), p.nameList(s.Indices))
	case *ir.GlobalLoadStmt:
		p.line("%s = global load %s", n, p.name(s.Ptr))
	case *ir.GlobalStoreStmt:
		p.line("%s : global store [%s <- %s]", n, p.name(s.Ptr), p.name(s.Value))
	case *ir.AtomicOpStmt:
		p.line("%s = atomic %s(%s, %s)", n, s.Op, p.name(s.Dest), p.name(s.Value))
	case *ir.IfStmt:
		p.line("%s : if %s {", n, p.name(s.Cond))
		p.block(s.True)
		p.line("} else {")
		p.block(s.False)
		p.line("}")
	case *ir.WhileStmt:
		p.line("%s : while {", n)
		p.block(s.Body)
		p.line("}")
	case *ir.WhileControlStmt:
		p.line("%s : while control %s", n, p.name(s.Cond))
	case *ir.RangeForStmt:
		p.line("%s : for %s in range(%s, %s) {", n, p.name(s.LoopVar), p.name(s.Begin), p.name(s.End))
		p.block(s.Body)
		p.line("}")
	case *ir.StructForStmt:
		loopVars := make([]ir.Stmt, len(s.LoopVars))
		for i, v := range s.LoopVars {
			loopVars[i] = v
		}
		p.line("%s : for (%s) in struct %s {", n, p.nameList(loopVars), s.SNode)
		p.block(s.Body)
		p.line("}")
	case *ir.PrintStmt:
		p.line("%s : print %q, %s", n, s.Label, p.name(s.Value))
	default:
		p.line("%s : %T", n, stmt)
	}
}

// String returns a string representation of a block and its nested blocks.
func String(root *ir.Block) string {
	p := newPrinter()
	p.depth = -1
	p.block(root)
	return p.out.String()
}

// Kernel returns a string representation of a kernel.
func Kernel(k *ir.Kernel) string {
	p := newPrinter()
	p.line("kernel %s {", k.Name)
	p.block(k.Body)
	p.line("}")
	return p.out.String()
}

// Short returns the name of the operation performed by a statement.
func Short(stmt ir.Stmt) string {
	switch s := stmt.(type) {
	case *ir.AllocaStmt:
		return "alloca"
	case *ir.LocalLoadStmt:
		return "local load"
	case *ir.LocalStoreStmt:
		return "local store"
	case *ir.ConstStmt:
		return "const"
	case *ir.UnaryOpStmt:
		return "unary " + s.Op.String()
	case *ir.BinaryOpStmt:
		return "binary " + s.Op.String()
	case *ir.TernaryOpStmt:
		return "ternary " + s.Op.String()
	case *ir.RangeAssumptionStmt:
		return "range assumption"
	case *ir.ElementShuffleStmt:
		return "element shuffle"
	case *ir.GlobalPtrStmt:
		return "global ptr"
	case *ir.GlobalLoadStmt:
		return "global load"
	case *ir.GlobalStoreStmt:
		return "global store"
	case *ir.AtomicOpStmt:
		return "atomic " + s.Op.String()
	case *ir.IfStmt:
		return "if"
	case *ir.WhileStmt:
		return "while"
	case *ir.WhileControlStmt:
		return "while control"
	case *ir.RangeForStmt:
		return "range for"
	case *ir.StructForStmt:
		return "struct for"
	case *ir.PrintStmt:
		return "print"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}
