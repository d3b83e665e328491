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

package interp_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irb"
	"github.com/gx-org/kernelgrad/build/typecheck"
	"github.com/gx-org/kernelgrad/interp"
)

func mustCheck(t *testing.T, root *ir.Block) {
	t.Helper()
	if err := typecheck.Check(root); err != nil {
		t.Fatal(err)
	}
}

func TestArithmetic(t *testing.T) {
	out := ir.NewField("out", dtype.Float32, 5)
	root := ir.NewBlock(nil)
	b := irb.New(root)
	idx := func(i int) ir.Stmt { return b.Const(float64(i), dtype.Int32) }
	x := b.Const(7, dtype.Float32)
	y := b.Const(2, dtype.Float32)
	b.GlobalStore(b.FieldPtr(out, idx(0)), b.Binary(ir.BinaryDiv, x, y))
	b.GlobalStore(b.FieldPtr(out, idx(1)), b.Binary(ir.BinaryDiv, b.Const(7, dtype.Int32), b.Const(2, dtype.Int32)))
	b.GlobalStore(b.FieldPtr(out, idx(2)), b.Unary(ir.UnarySqrt, b.Const(16, dtype.Float32)))
	b.GlobalStore(b.FieldPtr(out, idx(3)), b.Select(b.Binary(ir.BinaryCmpGT, x, y), x, y))
	b.GlobalStore(b.FieldPtr(out, idx(4)), b.Cast(b.Const(2.75, dtype.Float32), dtype.Int32, true))
	mustCheck(t, root)

	fields := interp.NewFields(out)
	if err := interp.Run(root, fields); err != nil {
		t.Fatal(err)
	}
	got, err := fields.Values(out)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3.5, 3, 4, 7, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestLoops(t *testing.T) {
	sum := ir.NewField("sum", dtype.Int32)
	grid := ir.NewField("grid", dtype.Int32, 2, 3)
	root := ir.NewBlock(nil)
	b := irb.New(root)
	// grid[i, j] = 10*i + j
	b.StructFor(grid, func(b *irb.Builder, ij []ir.Stmt) {
		val := b.Binary(ir.BinaryAdd, b.Binary(ir.BinaryMul, ij[0], b.Const(10, dtype.Int32)), ij[1])
		b.GlobalStore(b.FieldPtr(grid, ij...), val)
	})
	// for i in range(1, 4): sum += i
	b.RangeFor(b.Const(1, dtype.Int32), b.Const(4, dtype.Int32), func(b *irb.Builder, i ir.Stmt) {
		b.AtomicAdd(b.FieldPtr(sum), i)
	})
	// while sum < 100: sum *= 2
	b.While(func(b *irb.Builder) {
		cur := b.GlobalLoad(b.FieldPtr(sum))
		b.WhileControl(b.Binary(ir.BinaryCmpLT, cur, b.Const(100, dtype.Int32)))
		b.GlobalStore(b.FieldPtr(sum), b.Binary(ir.BinaryMul, cur, b.Const(2, dtype.Int32)))
	})
	mustCheck(t, root)

	fields := interp.NewFields(sum, grid)
	if err := interp.Run(root, fields); err != nil {
		t.Fatal(err)
	}
	gotGrid, err := fields.Values(grid)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0, 1, 2, 10, 11, 12}, gotGrid); diff != "" {
		t.Errorf("unexpected grid (-want +got):\n%s", diff)
	}
	gotSum, err := fields.Get(sum)
	if err != nil {
		t.Fatal(err)
	}
	if gotSum != 192 {
		t.Errorf("got sum %v but want 192", gotSum)
	}
}

func TestLocalsAndPrint(t *testing.T) {
	root := ir.NewBlock(nil)
	b := irb.New(root)
	acc := b.Alloca(dtype.Float64)
	b.LocalStore(acc, b.Const(1.5, dtype.Float64))
	b.LocalStore(acc, b.Binary(ir.BinaryAdd, b.LocalLoad(acc), b.Const(2, dtype.Float64)))
	b.Print("acc", b.LocalLoad(acc))
	b.If(b.Const(0, dtype.Bool), func(b *irb.Builder) {
		b.Print("then", b.Const(1, dtype.Int32))
	}, func(b *irb.Builder) {
		b.Print("else", b.Const(2, dtype.Int32))
	})
	mustCheck(t, root)

	var out strings.Builder
	if err := interp.RunKernel(&ir.Kernel{Name: "locals", Body: root}, interp.NewFields(), interp.WithOutput(&out)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("acc = 3.5\nelse = 2\n", out.String()); diff != "" {
		t.Errorf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	x := ir.NewField("x", dtype.Float32, 2)
	tests := []struct {
		name   string
		snodes []*ir.SNode
		build  func(*irb.Builder)
		want   string
	}{
		{
			name:   "out of bounds",
			snodes: []*ir.SNode{x},
			build: func(b *irb.Builder) {
				b.GlobalLoad(b.FieldPtr(x, b.Const(2, dtype.Int32)))
			},
			want: "out of bounds",
		},
		{
			name: "field not allocated",
			build: func(b *irb.Builder) {
				b.GlobalLoad(b.FieldPtr(x, b.Const(0, dtype.Int32)))
			},
			want: "not been allocated",
		},
		{
			name: "integer division by zero",
			build: func(b *irb.Builder) {
				b.Binary(ir.BinaryDiv, b.Const(1, dtype.Int32), b.Const(0, dtype.Int32))
			},
			want: "division by zero",
		},
		{
			name: "infinite loop",
			build: func(b *irb.Builder) {
				b.While(func(b *irb.Builder) {
					b.WhileControl(b.Const(1, dtype.Bool))
				})
			},
			want: "exceeded",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := ir.NewBlock(nil)
			test.build(irb.New(root))
			mustCheck(t, root)
			err := interp.Run(root, interp.NewFields(test.snodes...), interp.WithMaxIterations(10))
			if err == nil {
				t.Fatalf("no error returned")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not contain %q", err.Error(), test.want)
			}
		})
	}
}

func TestFields(t *testing.T) {
	x := ir.NewFieldWithGrad("x", dtype.Int32, 3)
	fields := interp.NewFields(x)
	if err := fields.Set(x, 2.7, 1); err != nil {
		t.Fatal(err)
	}
	got, err := fields.Get(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("got %v but want 2", got)
	}
	if _, err := fields.Get(x, 3); err == nil {
		t.Errorf("out of bounds access did not return an error")
	}
	names := []string{}
	for _, snode := range fields.SNodes() {
		names = append(names, snode.Name)
	}
	if diff := cmp.Diff([]string{"x", "x.grad"}, names); diff != "" {
		t.Errorf("unexpected fields (-want +got):\n%s", diff)
	}
	if err := fields.Zero(x); err != nil {
		t.Fatal(err)
	}
	if got, _ := fields.Get(x, 1); got != 0 {
		t.Errorf("got %v after zeroing but want 0", got)
	}
}
