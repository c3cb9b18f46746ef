// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cond

import "github.com/bufbuild/macrocompile/source"

// Frame is one level of #if nesting.
type Frame struct {
	// Whether some branch of this conditional has been selected.
	BranchTaken bool
	// Whether the current branch is selected.
	Active bool
	// Whether the enclosing region was active when this frame was pushed.
	ParentActive bool

	SawElse bool
	// The #if, #ifdef or #ifndef that opened this frame.
	Span source.Span
}

// Stack is the stack of open conditionals. The zero value is an empty stack,
// in which everything is active.
type Stack struct {
	frames []Frame
}

// Depth returns the number of open conditionals.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns the innermost open conditional.
func (s *Stack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Active returns whether lines at the current position are emitted, i.e.
// whether every open frame is active.
func (s *Stack) Active() bool {
	for _, f := range s.frames {
		if !f.Active {
			return false
		}
	}
	return true
}

// Push opens a conditional whose first branch has condition cond.
func (s *Stack) Push(cond bool, span source.Span) {
	parent := s.Active()
	active := parent && cond
	s.frames = append(s.frames, Frame{
		BranchTaken:  active,
		Active:       active,
		ParentActive: parent,
		Span:         span,
	})
}

// PushSkipped opens a conditional inside an inactive region. None of its
// branches can become active, so there is nothing to evaluate.
func (s *Stack) PushSkipped(span source.Span) {
	s.Push(false, span)
}

// NeedsElif returns whether an #elif at this point could activate its
// branch. If it returns false, the #elif's expression must not be evaluated.
func (s *Stack) NeedsElif() bool {
	top, ok := s.Top()
	return ok && top.ParentActive && !top.BranchTaken && !top.SawElse
}

// Elif moves to the next branch of the innermost conditional.
func (s *Stack) Elif(cond bool, span source.Span) error {
	top, err := s.top("#elif", span)
	if err != nil {
		return err
	}
	if top.SawElse {
		return &UnbalancedError{What: "`#elif` after `#else`", Span: span, Open: top.Span}
	}
	top.Active = top.ParentActive && !top.BranchTaken && cond
	top.BranchTaken = top.BranchTaken || top.Active
	return nil
}

// Else moves to the final branch of the innermost conditional.
func (s *Stack) Else(span source.Span) error {
	top, err := s.top("#else", span)
	if err != nil {
		return err
	}
	if top.SawElse {
		return &UnbalancedError{What: "`#else` after `#else`", Span: span, Open: top.Span}
	}
	top.Active = top.ParentActive && !top.BranchTaken
	top.BranchTaken = true
	top.SawElse = true
	return nil
}

// Pop closes the innermost conditional.
func (s *Stack) Pop(span source.Span) error {
	if _, err := s.top("#endif", span); err != nil {
		return err
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Close checks that every conditional has been closed, at the end of a file.
func (s *Stack) Close() error {
	top, ok := s.Top()
	if !ok {
		return nil
	}
	return &UnbalancedError{What: "unterminated conditional directive", Span: top.Span, Open: top.Span}
}

func (s *Stack) top(directive string, span source.Span) (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, &UnbalancedError{
			What: "`" + directive + "` without `#if`",
			Span: span,
			Open: span,
		}
	}
	return &s.frames[len(s.frames)-1], nil
}
