package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sweeney/meter-node/internal/config"
	"github.com/sweeney/meter-node/internal/counter"
	"github.com/sweeney/meter-node/internal/eeprom"
	"github.com/sweeney/meter-node/internal/settings"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print recovered counter values and the settings record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return printState(cmd)
	},
}

func printState(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := eeprom.OpenFile(cfg.Storage.Path, cfg.Storage.Size)
	if err != nil {
		return err
	}

	seeds, err := settings.Load(store, cfg.Storage.SettingsAddr)
	switch {
	case errors.Is(err, settings.ErrNoRecord):
		cmd.Println("settings: none")
	case err != nil:
		return err
	default:
		cmd.Printf("settings: energy=%.3f cold=%d hot=%d\n", seeds.Energy, seeds.Cold, seeds.Hot)
	}

	// Same recovery path as boot: a fresh region adopts the settings seed.
	for _, mc := range cfg.Meters {
		c, err := counter.New(store, mc.Name, mc.Base, mc.Slots)
		if err != nil {
			return err
		}
		if err := c.Init(seedFor(seeds, mc.Name)); err != nil {
			return err
		}
		cmd.Printf("%s: %d\n", mc.Name, c.Value())
	}
	return nil
}
