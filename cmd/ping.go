// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

var pingCount int

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the controller answers ALI",
	Long: `Send ALI (keep-alive) commands to the controller and wait for ACK.

This is useful for verifying:
  - the serial port or WebSocket is connected
  - the controller's communications step is running
  - command frames reach the controller intact

Exit codes:
  0 - All pings acknowledged
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().Int("timeout", 1000, "Timeout in milliseconds for each ping")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	cl := link.NewClient(conn)
	defer cl.Close()
	cl.Timeout = time.Duration(settings.GetInt(keyTimeout)) * time.Millisecond

	fmt.Printf("TLC - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %v per ping\n", cl.Timeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0
	alive := protocol.Query{Which: protocol.KindAlive}

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		start := time.Now()
		line, err := cl.Do(alive)
		switch {
		case errors.Is(err, link.ErrTimeout):
			fmt.Printf("TIMEOUT (no reply in %v)\n", cl.Timeout)
			failCount++
		case err != nil:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		case line == protocol.ReplyACK:
			fmt.Printf("ACK, rtt=%v\n", time.Since(start).Round(time.Millisecond))
			successCount++
		default:
			fmt.Printf("unexpected reply %q\n", line)
			failCount++
		}

		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	loss := 0.0
	if pingCount > 0 {
		loss = float64(failCount) / float64(pingCount) * 100
	}
	fmt.Printf("%d pings sent, %d acknowledged, %.0f%% loss\n", pingCount, successCount, loss)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
