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

package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
)

func newConst(v float64) *ir.ConstStmt {
	return &ir.ConstStmt{Value: v, DType: dtype.Float32}
}

func values(b *ir.Block) []float64 {
	var vals []float64
	for _, stmt := range b.Statements() {
		vals = append(vals, stmt.(*ir.ConstStmt).Value)
	}
	return vals
}

func TestBlockInsert(t *testing.T) {
	b := ir.NewBlock(nil)
	c1 := b.Append(newConst(1))
	b.Append(newConst(2))
	b.Insert(newConst(0), 0)
	if err := b.InsertBefore(c1, newConst(0.5)); err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 1, 2}
	if diff := cmp.Diff(want, values(b)); diff != "" {
		t.Errorf("unexpected block content (-want +got):\n%s", diff)
	}
	if c1.Parent() != b {
		t.Errorf("statement parent is %v but want %v", c1.Parent(), b)
	}
}

func TestBlockSnapshot(t *testing.T) {
	b := ir.NewBlock(nil)
	b.Append(newConst(1))
	b.Append(newConst(2))
	snapshot := b.Statements()
	b.Append(newConst(3))
	if err := b.Erase(snapshot[0]); err != nil {
		t.Fatal(err)
	}
	if len(snapshot) != 2 {
		t.Errorf("snapshot has %d statements but want 2", len(snapshot))
	}
	if diff := cmp.Diff([]float64{2, 3}, values(b)); diff != "" {
		t.Errorf("unexpected block content (-want +got):\n%s", diff)
	}
}

func TestBlockErase(t *testing.T) {
	b := ir.NewBlock(nil)
	c := b.Append(newConst(1))
	if err := b.Erase(c); err != nil {
		t.Fatal(err)
	}
	if c.Parent() != nil {
		t.Errorf("erased statement still has a parent")
	}
	if b.Contains(c) {
		t.Errorf("erased statement still in block")
	}
	if err := b.Erase(c); err == nil {
		t.Errorf("erasing a statement twice did not return an error")
	}
	if err := b.InsertBefore(c, newConst(2)); err == nil {
		t.Errorf("inserting before a statement not in the block did not return an error")
	}
}

func TestBlockInsertTwice(t *testing.T) {
	b := ir.NewBlock(nil)
	c := b.Append(newConst(1))
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("inserting a statement twice did not panic")
		}
	}()
	b.Append(c)
}

func TestEnclosing(t *testing.T) {
	root := ir.NewBlock(nil)
	loop := &ir.WhileStmt{}
	loop.Body = ir.NewBlock(loop)
	root.Append(loop)
	if got := loop.Body.Enclosing(); got != root {
		t.Errorf("enclosing block of loop body is %v but want %v", got, root)
	}
	if got := root.Enclosing(); got != nil {
		t.Errorf("enclosing block of root is %v but want nil", got)
	}
	if got := ir.Blocks(loop); len(got) != 1 || got[0] != loop.Body {
		t.Errorf("blocks of while statement: got %v", got)
	}
}

func TestSNode(t *testing.T) {
	x := ir.NewFieldWithGrad("x", dtype.Float32, 2, 3)
	if x.Grad == nil {
		t.Fatalf("field %s has no gradient field", x)
	}
	if got, want := x.Grad.Name, "x.grad"; got != want {
		t.Errorf("gradient field name: got %q but want %q", got, want)
	}
	if got, want := x.Grad.Size(), 6; got != want {
		t.Errorf("gradient field size: got %d but want %d", got, want)
	}
	if got, want := x.Rank(), 2; got != want {
		t.Errorf("rank: got %d but want %d", got, want)
	}
	scalar := ir.NewField("s", dtype.Float64)
	if scalar.Size() != 1 || scalar.Grad != nil {
		t.Errorf("scalar field: got size %d and grad %v", scalar.Size(), scalar.Grad)
	}
}

func TestOperators(t *testing.T) {
	if !ir.BinaryCmpLT.IsComparison() || ir.BinaryAdd.IsComparison() {
		t.Errorf("incorrect comparison classification")
	}
	if !ir.BinaryBitXor.IsBitOp() || ir.BinaryCmpEQ.IsBitOp() {
		t.Errorf("incorrect bit operator classification")
	}
	if got, want := ir.UnarySin.String(), "sin"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestBlockInsertOutOfRange(t *testing.T) {
	for _, pos := range []int{-2, 2} {
		b := ir.NewBlock(nil)
		b.Append(newConst(1))
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("inserting at position %d did not panic", pos)
				}
			}()
			b.Insert(newConst(2), pos)
		}()
		if got := b.Len(); got != 1 {
			t.Errorf("position %d: block has %d statements but want 1", pos, got)
		}
	}
}
