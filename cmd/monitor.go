// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring and operating a controller",
	Long: `Monitor and operate a controller via an interactive terminal UI.

The TUI polls STA every --interval and CFG on start and after every accepted
command, and shows:
  - system, cycle, control and trigger state
  - both pressure sensors, request pressure, pump drive and battery
  - active alarms
  - operator settings
  - an event log of state changes, alarms and command replies

Tab switches between the quick action list and the command line. The command
line takes any mnemonic with text arguments, e.g. "cur 12 100 20 1 2".

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Duration("interval", 250*time.Millisecond, "Status poll interval")
	rootCmd.AddCommand(monitorCmd)
}

// commander serializes access to the client between the poller and commands
type commander struct {
	mu sync.Mutex
	cl *link.Client
}

func (c *commander) do(cmd protocol.Command) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cl.Do(cmd)
}

func (c *commander) status() (protocol.Status, error) {
	line, err := c.do(protocol.Query{Which: protocol.KindStatus})
	if err != nil {
		return protocol.Status{}, err
	}
	return protocol.ParseStatus(line)
}

func (c *commander) settings() (protocol.Settings, error) {
	line, err := c.do(protocol.Query{Which: protocol.KindConfig})
	if err != nil {
		return protocol.Settings{}, err
	}
	return protocol.ParseSettings(line)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(settings)
	if err != nil {
		return err
	}
	cl := link.NewClient(conn)
	defer cl.Close()
	cl.Timeout = time.Duration(settings.GetInt(keyTimeout)) * time.Millisecond

	interval, _ := cmd.Flags().GetDuration("interval")
	m := initialMonitorModel(&commander{cl: cl}, connInfo, interval)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
