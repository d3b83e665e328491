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

// Package fmterr formats errors reported by passes over the kernel IR.
//
// Errors are sorted in three families:
//   - unsupported constructs (ErrNotImplemented),
//   - violated preconditions (ErrPrecondition),
//   - internal errors, that is bugs in the compiler itself.
//
// All errors carry a stack trace printed with the %+v verb.
package fmterr

import "github.com/pkg/errors"

var (
	// ErrNotImplemented is returned when a construct is not supported.
	ErrNotImplemented = errors.New("not implemented")

	// ErrPrecondition is returned when a statement violates a precondition.
	ErrPrecondition = errors.New("precondition violated")
)

// IsNotImplemented returns true if the error is caused by an unsupported construct.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsPrecondition returns true if the error is caused by a violated precondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
