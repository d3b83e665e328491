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
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/fmterr"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irb"
)

func TestAdjointMemoized(t *testing.T) {
	root := ir.NewBlock(nil)
	x := irb.New(root).Const(1, dtype.Float32)
	x.SetType(ir.Scalar(dtype.Float32))

	p := New(ir.Config{GradientDType: dtype.Float64})
	p.bld.SetBlock(root)
	first := p.adjoint(x)
	second := p.adjoint(x)
	if first != second {
		t.Errorf("adjoint requested twice returned two accumulators")
	}
	if got, want := root.Len(), 2; got != want {
		t.Fatalf("block has %d statements but want %d", got, want)
	}
	if root.At(0) != first {
		t.Errorf("accumulator not inserted at the front of the block")
	}
	if first.DType != dtype.Float64 || first.Width != 1 {
		t.Errorf("accumulator is %s but want a %s scalar", first.Type(), dtype.Float64)
	}
	if p.err != nil {
		t.Errorf("unexpected error: %v", p.err)
	}
}

func TestAdjointOfVector(t *testing.T) {
	root := ir.NewBlock(nil)
	b := irb.New(root)
	vec := b.ElementShuffle(b.Const(1, dtype.Float32), b.Const(2, dtype.Float32))
	vec.SetType(ir.Type{Width: 2, DType: dtype.Float32})

	p := New(ir.Config{GradientDType: dtype.Float32})
	p.bld.SetBlock(root)
	p.adjoint(vec)
	if !fmterr.IsPrecondition(p.err) {
		t.Errorf("got error %v but want a precondition error", p.err)
	}
}

func TestLoadOnlyReadsAllocas(t *testing.T) {
	root := ir.NewBlock(nil)
	c := irb.New(root).Const(1, dtype.Float32)
	p := New(ir.Config{GradientDType: dtype.Float32})
	p.bld.SetBlock(root)
	if got := p.load(c); got != c {
		t.Errorf("load of a constant emitted %T", got)
	}
	alloca := p.bld.Alloca(dtype.Float32)
	loaded, ok := p.load(alloca).(*ir.LocalLoadStmt)
	if !ok || loaded.Alloca != alloca {
		t.Errorf("load of an alloca did not emit a local load")
	}
}
