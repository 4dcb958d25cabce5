// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

var sendCmd = &cobra.Command{
	Use:   "send MNEMONIC [ARGS...]",
	Short: "Send one command and print the reply",
	Long: `Send a single command frame to the controller and print its reply.

Arguments are given as text and encoded to the binary payload of the command.
Enums accept either their name or number, switches accept on/off/1/0.

Examples:
  tlc send --port /dev/ttyUSB0 STA
  tlc send --port /dev/ttyUSB0 CYC on
  tlc send --url ws://tlc.local/ws TRI PATIENT
  tlc send --port /dev/ttyUSB0 CUR 12 1 2 300 50
  tlc send --port /dev/ttyUSB0 --raw 'ALI'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().Bool("raw", false, "Send the arguments verbatim as the frame body (CR-LF is appended)")
	sendCmd.Flags().Int("timeout", 1000, "Reply timeout in milliseconds")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	var frame []byte
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		frame = []byte(strings.Join(args, " ") + protocol.LineEnd)
	} else {
		c, err := protocol.ParseArgs(args[0], args[1:])
		if err != nil {
			return err
		}
		frame = protocol.Encode(c)
	}

	conn, _, err := OpenConnection(settings)
	if err != nil {
		return err
	}
	cl := link.NewClient(conn)
	defer cl.Close()
	cl.Timeout = time.Duration(settings.GetInt(keyTimeout)) * time.Millisecond

	line, err := cl.DoRaw(frame)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToUpper(args[0]), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), describeReply(args[0], line))
	if _, nack := link.Reply(line); nack {
		return fmt.Errorf("%s rejected", strings.ToUpper(args[0]))
	}
	return nil
}

// describeReply expands STA and CFG lines into labelled fields.
func describeReply(mnemonic, line string) string {
	switch protocol.LookupString(strings.ToUpper(mnemonic)) {
	case protocol.KindStatus:
		if st, err := protocol.ParseStatus(line); err == nil {
			return formatStatus(st)
		}
	case protocol.KindConfig:
		if c, err := protocol.ParseSettings(line); err == nil {
			return formatSettings(c)
		}
	}
	return line
}

func formatStatus(st protocol.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "system:   %s\n", st.System)
	fmt.Fprintf(&b, "control:  %s  trigger: %s  cycle: %s\n", st.Control, st.Trigger, st.Cycle)
	fmt.Fprintf(&b, "pressure: %.2f / %.2f mmH2O (request %.2f)\n", st.Pressure[0], st.Pressure[1], st.Request)
	fmt.Fprintf(&b, "drive:    %d\n", st.Drive)
	fmt.Fprintf(&b, "battery:  %.2f V\n", st.Battery)
	fmt.Fprintf(&b, "alarms:   %s", st.Alarms)
	return b.String()
}

func formatSettings(c protocol.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fio2:            %.1f %%\n", c.FiO2)
	fmt.Fprintf(&b, "take over:       %.0f ms\n", c.TakeOverMs)
	fmt.Fprintf(&b, "rate:            %.1f /min\n", c.Rate)
	fmt.Fprintf(&b, "inhale target:   %.1f mmH2O\n", c.InhaleTarget)
	fmt.Fprintf(&b, "exhale target:   %.1f mmH2O\n", c.ExhaleTarget)
	fmt.Fprintf(&b, "i:e ratio:       %.1f:%.1f\n", c.InhaleRatio, c.ExhaleRatio)
	fmt.Fprintf(&b, "min battery:     %.2f V\n", c.MinBattery)
	fmt.Fprintf(&b, "tidal:           %.0f..%.0f\n", c.TidalLow, c.TidalHigh)
	fmt.Fprintf(&b, "pressure limits: %.0f..%.0f (delta %.0f)\n", c.MinPressure, c.MaxPressure, c.MaxDelta)
	fmt.Fprintf(&b, "fio2 limits:     %.0f..%.0f\n", c.FiO2Low, c.FiO2High)
	fmt.Fprintf(&b, "non-rebreathing: %.0f", c.NonRebreathing)
	return b.String()
}
