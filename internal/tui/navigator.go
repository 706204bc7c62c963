package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/pimis/internal/domain"
)

// Navigator runs a navigator Model as a Bubble Tea program
type Navigator struct {
	program *tea.Program
}

// NewNavigator creates a program for model. Mouse clicks are reported so
// that clicks outside the open panel close it.
func NewNavigator(model Model, opts ...tea.ProgramOption) *Navigator {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	return &Navigator{program: tea.NewProgram(model, opts...)}
}

// Watch forwards published users into the running program. subscribe has
// the shape of session.Manager.Subscribe; the returned func unsubscribes.
func (n *Navigator) Watch(subscribe func(func(*domain.UserInfo)) func()) func() {
	return subscribe(func(u *domain.UserInfo) {
		n.program.Send(UserChangedMsg{User: u})
	})
}

// Run blocks until the user quits and returns the final model
func (n *Navigator) Run() (Model, error) {
	final, err := n.program.Run()
	if err != nil {
		return Model{}, fmt.Errorf("running navigator: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected model type: %T", final)
	}
	return m, nil
}

// Quit stops the program
func (n *Navigator) Quit() {
	n.program.Quit()
}
