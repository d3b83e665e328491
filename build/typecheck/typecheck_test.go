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

package typecheck_test

import (
	"strings"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irb"
	"github.com/gx-org/kernelgrad/build/typecheck"
	"go.uber.org/multierr"
)

func TestInference(t *testing.T) {
	x := ir.NewField("x", dtype.Float32, 8)
	root := ir.NewBlock(nil)
	b := irb.New(root)
	i := b.Const(3, dtype.Int32)
	load := b.GlobalLoad(b.FieldPtr(x, i))
	sin := b.Unary(ir.UnarySin, load)
	cmp := b.Binary(ir.BinaryCmpLT, sin, load)
	sel := b.Select(cmp, sin, load)
	if err := typecheck.Check(root); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		stmt ir.Stmt
		want ir.Type
	}{
		{stmt: i, want: ir.Scalar(dtype.Int32)},
		{stmt: load, want: ir.Scalar(dtype.Float32)},
		{stmt: sin, want: ir.Scalar(dtype.Float32)},
		{stmt: cmp, want: ir.Scalar(dtype.Bool)},
		{stmt: sel, want: ir.Scalar(dtype.Float32)},
	}
	for _, test := range tests {
		if got := test.stmt.Type(); got != test.want {
			t.Errorf("%T: got type %s but want %s", test.stmt, got, test.want)
		}
	}
}

func TestImplicitCast(t *testing.T) {
	root := ir.NewBlock(nil)
	b := irb.New(root)
	x := b.Const(1, dtype.Float32)
	y := b.Const(2, dtype.Float64)
	sum := b.Binary(ir.BinaryAdd, x, y)
	if err := typecheck.Check(root); err != nil {
		t.Fatal(err)
	}
	if got, want := sum.Type(), ir.Scalar(dtype.Float64); got != want {
		t.Errorf("got type %s but want %s", got, want)
	}
	cast, ok := sum.X.(*ir.UnaryOpStmt)
	if !ok || cast.Op != ir.UnaryCast || cast.X != x || cast.CastType != dtype.Float64 {
		t.Fatalf("left operand is not a cast of x to float64")
	}
	if got, want := root.Index(cast), root.Index(sum)-1; got != want {
		t.Errorf("cast inserted at %d but want %d", got, want)
	}
	if sum.Y != y {
		t.Errorf("right operand has been replaced")
	}
}

func TestStoreCast(t *testing.T) {
	root := ir.NewBlock(nil)
	b := irb.New(root)
	alloca := b.Alloca(dtype.Float32)
	store := b.LocalStore(alloca, b.Const(1, dtype.Int32))
	if err := typecheck.Check(root); err != nil {
		t.Fatal(err)
	}
	if got := store.Value.Type().DType; got != dtype.Float32 {
		t.Errorf("stored value has type %s but want %s", got, dtype.Float32)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*irb.Builder)
		want  []string
	}{
		{
			name: "erased operand",
			build: func(b *irb.Builder) {
				x := b.Const(1, dtype.Float32)
				b.Unary(ir.UnaryNeg, x)
				if err := b.Erase(x); err != nil {
					panic(err)
				}
			},
			want: []string{"erased"},
		},
		{
			name: "use before definition",
			build: func(b *irb.Builder) {
				x := &ir.ConstStmt{Value: 1, DType: dtype.Float32}
				b.Unary(ir.UnaryNeg, x)
				b.Insert(x)
			},
			want: []string{"not defined before"},
		},
		{
			name: "defined in a nested block",
			build: func(b *irb.Builder) {
				var inner ir.Stmt
				b.While(func(b *irb.Builder) {
					inner = b.Const(1, dtype.Float32)
					b.WhileControl(b.Const(0, dtype.Bool))
				})
				b.Unary(ir.UnaryNeg, inner)
			},
			want: []string{"not defined before"},
		},
		{
			name: "while control outside of loop",
			build: func(b *irb.Builder) {
				b.WhileControl(b.Const(1, dtype.Bool))
			},
			want: []string{"outside of a while loop"},
		},
		{
			name: "float index",
			build: func(b *irb.Builder) {
				x := ir.NewField("x", dtype.Float32, 4)
				b.FieldPtr(x, b.Const(1, dtype.Float32))
			},
			want: []string{"want an integer"},
		},
		{
			name: "several errors",
			build: func(b *irb.Builder) {
				b.Unary(ir.UnarySin, b.Const(1, dtype.Int32))
				b.Unary(ir.UnaryBitNot, b.Const(1, dtype.Float32))
			},
			want: []string{"floating point", "want an integer"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := ir.NewBlock(nil)
			test.build(irb.New(root))
			err := typecheck.Check(root)
			if err == nil {
				t.Fatalf("no error returned")
			}
			errs := multierr.Errors(err)
			if len(errs) != len(test.want) {
				t.Fatalf("got %d errors but want %d: %v", len(errs), len(test.want), err)
			}
			for i, err := range errs {
				if _, ok := err.(*typecheck.TypeError); !ok {
					t.Errorf("error %d has type %T but want %T", i, err, &typecheck.TypeError{})
				}
				if !strings.Contains(err.Error(), test.want[i]) {
					t.Errorf("error %q does not contain %q", err.Error(), test.want[i])
				}
			}
		})
	}
}
