// Package console is a terminal workbench for pasting chat messages and
// inspecting the orders extracted from them.
package console

import (
	"context"

	"orderbot/pkg/order"

	tea "github.com/charmbracelet/bubbletea"
)

// ExtractFunc turns one pasted message into an order. A nil order with a nil
// error means the message produced no order.
type ExtractFunc func(ctx context.Context, text string) (*order.ExtractedOrder, error)

// Info describes the sender the console extracts on behalf of.
type Info struct {
	Sender    string
	Group     string
	AllowFrom int
}

func Run(ctx context.Context, extract ExtractFunc, info Info) error {
	program := tea.NewProgram(newModel(ctx, extract, info), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}
