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

package fmterr

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/gx-org/kernelgrad/build/ir"
	"github.com/gx-org/kernelgrad/build/ir/irstring"
)

// StmtError is an error attached to a statement.
type StmtError struct {
	stmt ir.Stmt
	err  error
}

// At attaches an error to a statement.
func At(stmt ir.Stmt, err error) error {
	return &StmtError{stmt: stmt, err: err}
}

// Errorf returns an error attached to a statement.
func Errorf(stmt ir.Stmt, format string, a ...any) error {
	return At(stmt, errors.Errorf(format, a...))
}

// NotImplementedf returns an error for an unsupported statement.
func NotImplementedf(stmt ir.Stmt, format string, a ...any) error {
	return At(stmt, errors.Wrapf(ErrNotImplemented, format, a...))
}

// Preconditionf returns an error for a statement violating a precondition.
func Preconditionf(stmt ir.Stmt, format string, a ...any) error {
	return At(stmt, errors.Wrapf(ErrPrecondition, format, a...))
}

// Internal marks an error as a bug in the compiler.
func Internal(err error) error {
	return fmt.Errorf("kernelgrad internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf returns an internal error attached to a statement.
func Internalf(stmt ir.Stmt, format string, a ...any) error {
	return Internal(Errorf(stmt, format, a...))
}

// Stmt returns the statement the error is attached to.
func (err *StmtError) Stmt() ir.Stmt {
	return err.stmt
}

func (err *StmtError) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.stmt == nil {
		return err.err.Error()
	}
	return irstring.Short(err.stmt) + ": " + err.err.Error()
}

// Unwrap returns the error attached to the statement.
func (err *StmtError) Unwrap() error {
	return err.err
}

// Format the error. %+v appends the stack trace of the wrapped error.
func (err *StmtError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		io.WriteString(s, err.Error())
		if !s.Flag('+') {
			return
		}
		var withSt interface {
			StackTrace() errors.StackTrace
		}
		if errors.As(err.err, &withSt) {
			fmt.Fprintf(s, "\nError generated at:%+v\n", withSt.StackTrace())
		}
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}
