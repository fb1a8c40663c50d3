package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/cwkey/cmd/common"
	"github.com/gigurra/cwkey/cmd/common/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var ErrConfigExists = errors.New("config file already exists")

type ShowParams struct {
	Config string `optional:"true" help:"Config file (default ~/.cwkey/config.json)."`
}

type InitParams struct {
	Config string `optional:"true" help:"Config file (default ~/.cwkey/config.json)."`
	Force  bool   `short:"f" help:"Overwrite an existing config file." default:"false"`
}

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the cwkey config file",
	}

	cmd.AddCommand(showCmd())
	cmd.AddCommand(initCmd())

	return cmd
}

func showCmd() *cobra.Command {
	return boa.CmdT[ShowParams]{
		Use:         "show",
		Short:       "Print the effective configuration",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ShowParams, cmd *cobra.Command, args []string) {
			if err := runShow(pathOrDefault(params.Config), os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func initCmd() *cobra.Command {
	return boa.CmdT[InitParams]{
		Use:         "init",
		Short:       "Write a config file with default values",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *InitParams, cmd *cobra.Command, args []string) {
			if err := runInit(pathOrDefault(params.Config), params.Force, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func pathOrDefault(path string) string {
	if path == "" {
		return config.ConfigPath()
	}
	return path
}

func runShow(path string, stdout io.Writer) error {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(path)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRow(table.Row{"unit", cfg.DotDuration().String()})
	if cfg.WPM > 0 {
		t.AppendRow(table.Row{"wpm", cfg.WPM})
	} else {
		t.AppendRow(table.Row{"dot_ms", cfg.DotMs})
	}
	t.AppendRow(table.Row{"tick_ms", cfg.TickMs})
	t.AppendRow(table.Row{"capacity", fmt.Sprintf("%d bytes", cfg.Capacity)})
	t.AppendRow(table.Row{"sinks", strings.Join(cfg.Sinks, ", ")})
	t.AppendRow(table.Row{"tone", fmt.Sprintf("%.0f Hz at %.0f%%", cfg.Tone.FrequencyHz, cfg.Tone.Volume*100)})
	t.Render()
	return nil
}

func runInit(path string, force bool, stdout io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}
	if err := config.SaveTo(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
