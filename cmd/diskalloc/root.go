package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lance6716/disk-allocator/internal/config"
	"github.com/lance6716/disk-allocator/internal/logger"
)

const version = "v0.1.0"

// app carries the state shared by the subcommands of one invocation.
type app struct {
	cfgFile string
	cfg     *config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "diskalloc",
		Short: "Simulate file allocation methods on a small volume",
		Long: `diskalloc simulates how a file system places files on a volume made of
fixed size blocks. It supports contiguous, linked, indexed and
contiguous-indexed allocation and reports the number of entry accesses of
every operation.

Scripts contain one command per line:

  add,100,1,2,3
  read,102
  delete,100`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in standard locations)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "human", "Log format: json or human")
	flags.String("log-file", "", "Also write logs to this file")
	flags.StringP("method", "m", "contiguous", "Allocation method: contiguous, linked, indexed, contiguous-indexed or 1-4")
	flags.IntP("block-size", "b", 4, "Number of entries per block")
	flags.Int("capacity", 128, "Total number of entries of the volume")
	flags.StringP("format", "o", "text", "Output format: text or yaml")
	flags.Bool("show-steps", false, "Print the disk map after every command")

	rootCmd.AddCommand(newRunCmd(a), newMapCmd(a), newVersionCmd())
	return rootCmd
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"debug":      "debug",
	"log-format": "log_format",
	"log-file":   "log_file",
	"method":     "volume.method",
	"block-size": "volume.block_size",
	"capacity":   "volume.capacity",
	"format":     "output.format",
	"show-steps": "output.show_steps",
}

func (a *app) init(cmd *cobra.Command) error {
	v := config.New(a.cfgFile)
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.InitLogger(logger.LoggerConfig{
		Debug:     cfg.Debug,
		LogFormat: cfg.LogFormat,
		LogFile:   cfg.LogFile,
	}); err != nil {
		return err
	}
	logger.LogDebug("Configuration loaded", map[string]interface{}{
		"config_file": cfg.ConfigFile,
		"method":      cfg.Volume.Method,
		"block_size":  cfg.Volume.BlockSize,
		"capacity":    cfg.Volume.Capacity,
	})
	return nil
}

// bindFlags lets flags that were set explicitly override the config file and
// the environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return errors.Errorf("flag %s is not defined", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "diskalloc "+version)
		},
	}
}
