// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thermoquad/tlc/pkg/clock"
	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/firmware"
	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/sensors"
	"github.com/Thermoquad/tlc/pkg/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller core against a simulated patient circuit",
	Long: `Run the controller firmware on this host.

The pump, exhale valve and pressure sensors are replaced by a simulated lung.
The command channel is served on --port (serial), --listen (WebSocket, one
client) or stdin/stdout when neither is given.

Telemetry frames can be written to a second serial port or a file with
--telemetry-port / --telemetry-file, and published to an MQTT broker with
--mqtt mqtt://host:1883/prefix.

Examples:
  tlc run --port /dev/pts/3
  tlc run --listen :8080 --mqtt mqtt://localhost:1883/tlc
  tlc run --eeprom ./bench.bin --telemetry-file frames.bin`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("eeprom", defaultEEPROM, "Configuration image file (created with defaults if missing)")
	f.String("listen", "", "Serve the command channel as a WebSocket on this address")
	f.String("telemetry-port", "", "Serial port receiving telemetry frames")
	f.String("telemetry-file", "", "File receiving telemetry frames (appended)")
	f.String("mqtt", "", "MQTT broker URL for telemetry (mqtt://[user:pass@]host:port/prefix)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	periods, err := runtimePeriods(settings)
	if err != nil {
		return err
	}

	store := config.FileStore{Path: settings.GetString(keyEEPROM)}
	if err := ensureImage(store); err != nil {
		return err
	}

	sinks, closers, err := openTelemetrySinks(settings)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	conn, desc, err := openCommandChannel(ctx, settings)
	if err != nil {
		return err
	}
	port := link.New(conn)
	defer port.Close()
	glog.Infof("run: command channel %s", desc)

	lung := sensors.NewLung(config.Defaults().ServoExhaleOpen)
	fw := firmware.New(firmware.Options{
		Clock:    clock.NewSystem(),
		Port:     port,
		Actuator: lung,
		ADC:      lung,
		Plant:    lung,
		Store:    store,
		Sinks:    sinks,
		Periods:  periods,
	})
	fw.Boot()
	lung.OpenAngle = fw.Config.Record().ServoExhaleOpen

	err = fw.Run(ctx)
	stale, overflows := fw.RxStats()
	glog.Infof("run: stopped (rx stale=%d overflow=%d dropped=%d)", stale, overflows, port.Dropped())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ensureImage writes a default configuration image when the file is missing
func ensureImage(store config.FileStore) error {
	if _, err := os.Stat(store.Path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	glog.Infof("run: creating %s with defaults", store.Path)
	return config.NewManager(store).Save()
}

func openTelemetrySinks(v *viper.Viper) ([]telemetry.Sink, []io.Closer, error) {
	var (
		sinks   []telemetry.Sink
		closers []io.Closer
	)
	fail := func(err error) ([]telemetry.Sink, []io.Closer, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, nil, err
	}

	if name := v.GetString(keyTelemetryPort); name != "" {
		conn, err := OpenSerialConnection(name, v.GetInt(keyBaud))
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, telemetry.NewWriterSink(conn, name))
		closers = append(closers, conn)
	}

	if name := v.GetString(keyTelemetryFile); name != "" {
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fail(fmt.Errorf("open telemetry file: %w", err))
		}
		sinks = append(sinks, telemetry.NewWriterSink(file, name))
		closers = append(closers, file)
	}

	if broker := v.GetString(keyMQTT); broker != "" {
		sink, err := telemetry.DialMQTT(broker)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink)
	}

	for _, s := range sinks {
		glog.Infof("run: telemetry to %s", s)
	}
	return sinks, closers, nil
}
