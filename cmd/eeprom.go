// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/config"
)

var eepromCmd = &cobra.Command{
	Use:   "eeprom",
	Short: "Inspect and edit a configuration image file",
	Long: `Inspect and edit the configuration image used by 'tlc run'.

The image is the same 512 byte layout the controller keeps in EEPROM. Images
are exported to and imported from YAML for editing.

Examples:
  tlc eeprom export --eeprom bench.bin > bench.yaml
  tlc eeprom import --eeprom bench.bin bench.yaml
  tlc eeprom defaults --eeprom bench.bin`,
}

var eepromExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the image as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := config.NewManager(imageStore())
		if err := m.Load(); err != nil {
			return err
		}
		return config.ExportYAML(cmd.OutOrStdout(), *m.Record())
	},
}

var eepromImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Write a YAML document (or stdin) into the image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		rec, err := config.ImportYAML(in)
		if err != nil {
			return err
		}
		return writeImage(cmd, rec)
	},
}

var eepromDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Reset the image to the default record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeImage(cmd, config.Defaults())
	},
}

func init() {
	eepromCmd.PersistentFlags().String("eeprom", defaultEEPROM, "Configuration image file")
	eepromCmd.AddCommand(eepromExportCmd, eepromImportCmd, eepromDefaultsCmd)
	rootCmd.AddCommand(eepromCmd)
}

func imageStore() config.FileStore {
	return config.FileStore{Path: settings.GetString(keyEEPROM)}
}

func writeImage(cmd *cobra.Command, rec config.Record) error {
	store := imageStore()
	m := config.NewManager(store)
	*m.Record() = rec
	if err := m.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (version %d)\n", store.Path, rec.Version)
	return nil
}
