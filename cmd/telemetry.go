// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/telemetry"
)

var (
	telemetryFile  string
	telemetryQuiet bool
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Decode and display telemetry frames",
	Long: `Continuously decode and display telemetry frames as they arrive.

Frames are read from one of:
  --mqtt mqtt://host:1883/tlc   subscribe to every topic under the prefix
  --file frames.bin             replay a file written by 'tlc run --telemetry-file'
  --port / --url                a telemetry serial port or WebSocket

Error statistics are printed on exit (Ctrl+C or end of file).`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("mqtt", "", "MQTT broker URL to subscribe to")
	telemetryCmd.Flags().StringVar(&telemetryFile, "file", "", "Recorded frame file to replay")
	telemetryCmd.Flags().BoolVarP(&telemetryQuiet, "quiet", "q", false, "Only print statistics")
	rootCmd.AddCommand(telemetryCmd)
}

// frameLog decodes frames and keeps statistics. Safe for concurrent feeds.
type frameLog struct {
	mu      sync.Mutex
	out     io.Writer
	quiet   bool
	decoder *telemetry.Decoder
	stats   *telemetry.Statistics
}

func newFrameLog(out io.Writer, quiet bool) *frameLog {
	return &frameLog{
		out:     out,
		quiet:   quiet,
		decoder: telemetry.NewDecoder(),
		stats:   telemetry.NewStatistics(),
	}
}

func (l *frameLog) feed(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	packets := l.decoder.Decode(data, func(err error) {
		l.stats.Update(nil, err)
		if !l.quiet {
			fmt.Fprintf(l.out, "[ERROR] %v\n", err)
		}
	})
	for _, p := range packets {
		l.stats.Update(p, nil)
		if !l.quiet {
			fmt.Fprint(l.out, telemetry.FormatPacket(p))
		}
	}
}

// frame decodes one complete frame, as delivered by MQTT.
func (l *frameLog) frame(data []byte) {
	l.mu.Lock()
	l.decoder.Reset()
	l.mu.Unlock()
	l.feed(data)
}

func (l *frameLog) summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats.String()
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newFrameLog(cmd.OutOrStdout(), telemetryQuiet)
	defer func() { fmt.Fprint(cmd.OutOrStdout(), "\n"+log.summary()) }()

	if broker := settings.GetString(keyMQTT); broker != "" {
		sink, err := telemetry.DialMQTT(broker)
		if err != nil {
			return err
		}
		defer sink.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "TLC - Telemetry\nSource: %s\nPress Ctrl+C to exit\n\n", sink)
		if err := sink.Subscribe(func(topic string, frame []byte) {
			glog.V(1).Infof("telemetry: %d bytes on %s", len(frame), topic)
			log.frame(frame)
		}); err != nil {
			return fmt.Errorf("mqtt subscribe: %w", err)
		}
		<-ctx.Done()
		return nil
	}

	var (
		src  io.ReadCloser
		info string
	)
	if telemetryFile != "" {
		f, err := os.Open(telemetryFile)
		if err != nil {
			return err
		}
		src, info = f, "File: "+telemetryFile
	} else {
		conn, connInfo, err := OpenConnection(settings)
		if err != nil {
			return err
		}
		src, info = conn, connInfo
	}
	defer src.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "TLC - Telemetry\nSource: %s\nPress Ctrl+C to exit\n\n", info)

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				log.feed(buf[:n])
			}
			if err != nil {
				done <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) {
			return nil
		}
		return err
	}
}
