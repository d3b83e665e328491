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

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// Block is an ordered list of statements. A block owns its statements.
type Block struct {
	owner Stmt
	stmts []Stmt
}

// NewBlock returns a new empty block owned by a statement.
// The owner is nil for a root block.
func NewBlock(owner Stmt) *Block {
	return &Block{owner: owner}
}

// Owner returns the statement owning the block or nil for a root block.
func (b *Block) Owner() Stmt {
	return b.owner
}

// Enclosing returns the block owning the statement that owns this block.
// Returns nil for a root block.
func (b *Block) Enclosing() *Block {
	if b.owner == nil {
		return nil
	}
	return b.owner.Parent()
}

// Len returns the number of statements in the block.
func (b *Block) Len() int {
	return len(b.stmts)
}

// At returns the i-th statement of the block.
func (b *Block) At(i int) Stmt {
	return b.stmts[i]
}

// Statements returns a copy of the list of statements.
// The copy is not modified when the block is.
func (b *Block) Statements() []Stmt {
	return slices.Clone(b.stmts)
}

// Index returns the position of a statement in the block or -1.
func (b *Block) Index(stmt Stmt) int {
	return slices.Index(b.stmts, stmt)
}

// Contains returns true if the statement is in the block.
func (b *Block) Contains(stmt Stmt) bool {
	return b.Index(stmt) >= 0
}

// Insert a statement at a given position and returns the statement.
// A position of -1 appends the statement at the end of the block.
// Panics if the position is out of [-1, Len()].
func (b *Block) Insert(stmt Stmt, pos int) Stmt {
	base := stmt.base()
	if base.parent != nil {
		panic(fmt.Sprintf("statement %T already belongs to a block", stmt))
	}
	if pos < -1 || pos > len(b.stmts) {
		panic(fmt.Sprintf("position %d out of range [-1, %d]", pos, len(b.stmts)))
	}
	if pos == -1 {
		pos = len(b.stmts)
	}
	b.stmts = slices.Insert(b.stmts, pos, stmt)
	base.parent = b
	return stmt
}

// Append a statement at the end of the block and returns the statement.
func (b *Block) Append(stmt Stmt) Stmt {
	return b.Insert(stmt, -1)
}

// InsertBefore inserts a statement just before an anchor statement of the block.
func (b *Block) InsertBefore(anchor, stmt Stmt) error {
	pos := b.Index(anchor)
	if pos < 0 {
		return errors.Errorf("cannot insert before %T: statement not in block", anchor)
	}
	b.Insert(stmt, pos)
	return nil
}

// Erase removes a statement from the block.
func (b *Block) Erase(stmt Stmt) error {
	pos := b.Index(stmt)
	if pos < 0 {
		return errors.Errorf("cannot erase %T: statement not in block", stmt)
	}
	b.stmts = slices.Delete(b.stmts, pos, pos+1)
	stmt.base().parent = nil
	return nil
}
