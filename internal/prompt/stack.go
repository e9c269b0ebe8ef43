// Package prompt models the ordered, role-tagged conversation that makes up a
// single model request.
package prompt

import "strings"

// Role identifies who produced an input.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Input is one role-tagged turn in a prompt stack.
type Input struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsSystem reports whether the input is a system turn.
func (i Input) IsSystem() bool { return i.Role == RoleSystem }

// IsUser reports whether the input is a user turn.
func (i Input) IsUser() bool { return i.Role == RoleUser }

// IsAssistant reports whether the input is an assistant turn.
func (i Input) IsAssistant() bool { return i.Role == RoleAssistant }

// Stack is an ordered list of inputs. The caller owns it; drivers read it and
// work on clones when they need to transform it.
type Stack struct {
	inputs []Input
}

// NewStack creates a stack holding a copy of inputs.
func NewStack(inputs ...Input) *Stack {
	s := &Stack{}
	s.inputs = append(s.inputs, inputs...)
	return s
}

// AddInput appends a turn with the given role.
func (s *Stack) AddInput(role Role, content string) *Stack {
	s.inputs = append(s.inputs, Input{Role: role, Content: content})
	return s
}

// AddSystemInput appends a system turn.
func (s *Stack) AddSystemInput(content string) *Stack {
	return s.AddInput(RoleSystem, content)
}

// AddUserInput appends a user turn.
func (s *Stack) AddUserInput(content string) *Stack {
	return s.AddInput(RoleUser, content)
}

// AddAssistantInput appends an assistant turn.
func (s *Stack) AddAssistantInput(content string) *Stack {
	return s.AddInput(RoleAssistant, content)
}

// Inputs returns a copy of the stack's inputs.
func (s *Stack) Inputs() []Input {
	if s == nil {
		return nil
	}
	out := make([]Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// Len returns the number of inputs.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.inputs)
}

// Clone returns an independent copy of the stack.
func (s *Stack) Clone() *Stack {
	return NewStack(s.Inputs()...)
}

// WithInputs returns a new stack holding inputs, leaving s untouched.
func (s *Stack) WithInputs(inputs []Input) *Stack {
	return NewStack(inputs...)
}

// ToString flattens a stack into a single completion-style prompt. User and
// assistant turns are labelled, system turns are emitted verbatim, and a
// trailing "Assistant:" cue asks the model to continue.
func ToString(s *Stack) string {
	lines := make([]string, 0, s.Len()+1)
	for _, in := range s.Inputs() {
		switch in.Role {
		case RoleUser:
			lines = append(lines, "User: "+in.Content)
		case RoleAssistant:
			lines = append(lines, "Assistant: "+in.Content)
		default:
			lines = append(lines, in.Content)
		}
	}
	lines = append(lines, "Assistant:")
	return strings.Join(lines, "\n\n")
}
