// File: assembler.go
// Title: Block/Frame Assembler
// Description: Stateful builder that turns a linear stream of items, loop
//              declarations, loop values and frame boundaries into blocks
//              and frames. A loop whose tags are followed by an unrelated
//              construct before any value is committed as an empty loop.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-14
// Modified: 2026-10-14
//
// Change History:
// - 2026-10-14 v0.1.0: Initial implementation

package raw

import (
	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// Structural error messages
const (
	MsgLoopNoTags       = "loop has no tags"
	MsgLoopNotDivisible = "loop values not divisible by tag count"
	MsgNestedFrame      = "save frames cannot nest"
)

// Assembler collects the contents of one block or one frame. At most one
// loop is pending at any time; every other construct commits it first.
type Assembler struct {
	block   *Block
	frame   *Frame
	parent  *Assembler
	open    *Assembler // frame assembler not yet ended
	pending *Loop
	done    bool
}

// NewAssembler starts assembling a data block
func NewAssembler(name string, nameSpan, sp span.Span) *Assembler {
	return &Assembler{block: &Block{Name: name, NameSpan: nameSpan, Span: sp}}
}

// InFrame reports whether a is assembling a save frame
func (a *Assembler) InFrame() bool {
	return a.frame != nil
}

// HasPending reports whether a loop is under construction
func (a *Assembler) HasPending() bool {
	return a.pending != nil
}

// AddItem commits any pending loop, then appends the item
func (a *Assembler) AddItem(item Item) error {
	if err := a.ready("AddItem"); err != nil {
		return err
	}
	if err := a.finalize(); err != nil {
		return err
	}
	if a.frame != nil {
		a.frame.Items = append(a.frame.Items, item)
	} else {
		a.block.Items = append(a.block.Items, item)
	}
	return nil
}

// BeginLoop commits any pending loop, then opens a new one with the given
// column tags
func (a *Assembler) BeginLoop(tags []string, sp span.Span) error {
	if err := a.ready("BeginLoop"); err != nil {
		return err
	}
	if err := a.finalize(); err != nil {
		return err
	}
	a.pending = &Loop{Tags: append([]string(nil), tags...), Span: sp}
	return nil
}

// AddLoopValue appends a value to the pending loop
func (a *Assembler) AddLoopValue(v Value) error {
	if err := a.ready("AddLoopValue"); err != nil {
		return err
	}
	if a.pending == nil {
		return mdwerror.New("loop value without an open loop").
			WithCode(mdwerror.CodeInternal).
			WithOperation("raw.Assembler.AddLoopValue").
			WithSpan(v.Location())
	}
	a.pending.Values = append(a.pending.Values, v)
	a.pending.Span = a.pending.Span.Cover(v.Location())
	return nil
}

// BeginFrame commits any pending loop and returns an assembler for the
// frame body. The frame is attached to a when the child's EndFrame runs.
func (a *Assembler) BeginFrame(name string, nameSpan, sp span.Span) (*Assembler, error) {
	if err := a.ready("BeginFrame"); err != nil {
		return nil, err
	}
	if err := a.finalize(); err != nil {
		return nil, err
	}
	if a.frame != nil {
		return nil, structuralError(MsgNestedFrame, sp).
			WithDetail("frame", name).
			WithDetail("enclosing_frame", a.frame.Name)
	}
	child := &Assembler{
		frame:  &Frame{Name: name, NameSpan: nameSpan, Span: sp},
		parent: a,
	}
	a.open = child
	return child, nil
}

// EndFrame commits the frame's pending loop and attaches the frame to its
// block
func (a *Assembler) EndFrame() error {
	if a.frame == nil {
		return internalError("EndFrame called on a block assembler")
	}
	if err := a.ready("EndFrame"); err != nil {
		return err
	}
	if err := a.finalize(); err != nil {
		return err
	}
	a.done = true
	a.parent.open = nil
	a.parent.block.Frames = append(a.parent.block.Frames, *a.frame)
	return nil
}

// Finish commits any pending loop and returns the block
func (a *Assembler) Finish() (*Block, error) {
	if a.frame != nil {
		return nil, internalError("Finish called on a frame assembler")
	}
	if err := a.ready("Finish"); err != nil {
		return nil, err
	}
	if err := a.finalize(); err != nil {
		return nil, err
	}
	a.done = true
	return a.block, nil
}

// finalize moves the pending loop into the container. Calling it with no
// pending loop does nothing.
func (a *Assembler) finalize() error {
	loop := a.pending
	if loop == nil {
		return nil
	}
	a.pending = nil

	if len(loop.Tags) == 0 {
		return structuralError(MsgLoopNoTags, loop.Span)
	}
	if len(loop.Values)%len(loop.Tags) != 0 {
		return structuralError(MsgLoopNotDivisible, loop.Span).
			WithDetail("tags", len(loop.Tags)).
			WithDetail("values", len(loop.Values))
	}

	if a.frame != nil {
		a.frame.Loops = append(a.frame.Loops, *loop)
	} else {
		a.block.Loops = append(a.block.Loops, *loop)
	}
	return nil
}

func (a *Assembler) ready(op string) error {
	switch {
	case a.done:
		return internalError(op + " called after the container was closed")
	case a.open != nil:
		return internalError(op + " called while save frame " + a.open.frame.Name + " is open")
	}
	return nil
}

func structuralError(msg string, sp span.Span) *mdwerror.Error {
	return mdwerror.New(msg).
		WithCode(mdwerror.CodeStructure).
		WithOperation("raw.Build").
		WithSpan(sp)
}

func internalError(msg string) *mdwerror.Error {
	return mdwerror.New("assembler: " + msg).
		WithCode(mdwerror.CodeInternal).
		WithOperation("raw.Assembler")
}
