package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var configsOpts struct {
	attribute string
	config    uint32
}

var configsCmd = &cobra.Command{
	Use:   "configs <dpy>",
	Short: "List display configs or read one attribute",
	Long: `List the configs of a display.

With --attribute, print a single attribute of one config instead.

Examples:
  # List configs
  fbhwc configs 0

  # Read the vsync period of config 0
  fbhwc configs 0 --attribute vsync-period --index 0`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigs,
}

func init() {
	rootCmd.AddCommand(configsCmd)

	configsCmd.Flags().StringVarP(&configsOpts.attribute, "attribute", "a", "",
		"Attribute to print (width, height, vsync-period, dpi-x, dpi-y)")
	configsCmd.Flags().Uint32VarP(&configsOpts.config, "index", "i", 0,
		"Config index for --attribute")
}

func runConfigs(cmd *cobra.Command, args []string) error {
	dpy, err := parseDisplay(args[0])
	if err != nil {
		return err
	}

	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if configsOpts.attribute != "" {
		attr, err := model.ParseAttribute(configsOpts.attribute)
		if err != nil {
			return err
		}
		v, err := client.Attribute(dpy, model.ConfigIndex(configsOpts.config), attr)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	}

	configs, err := client.Configs(dpy)
	if err != nil {
		return err
	}
	return formatter().FormatConfigs(os.Stdout, configs)
}
