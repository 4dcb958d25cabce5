// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// TLC - Lung Controller
//
// Runs the lung controller core on a host against a simulated patient
// circuit, and provides the tools to operate a controller over its line
// protocol and to watch its telemetry.

package main

import (
	"os"

	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/cmd"
)

func main() {
	err := cmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
