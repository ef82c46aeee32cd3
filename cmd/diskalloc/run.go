package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	diskalloc "github.com/lance6716/disk-allocator"
	"github.com/lance6716/disk-allocator/internal/logger"
	"github.com/lance6716/disk-allocator/internal/report"
	"github.com/lance6716/disk-allocator/internal/runner"
	"github.com/lance6716/disk-allocator/internal/script"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command script against a new volume",
		Long: `Run creates an empty volume, runs every command of the script against it
and prints the outcome of each command followed by the final disk map.

Use "-" to read the script from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newMapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Print the disk map of an empty volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newVolume()
			if err != nil {
				return err
			}
			return a.writeFinal(cmd.OutOrStdout(), m.Snapshot(), nil)
		},
	}
}

func (a *app) newVolume() (diskalloc.Manager, error) {
	volCfg, err := a.cfg.VolumeConfig()
	if err != nil {
		return nil, err
	}
	return diskalloc.NewVolume(volCfg)
}

func (a *app) run(stdin io.Reader, out io.Writer, path string) error {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open script %s", path)
		}
		defer f.Close()
		in = f
	}

	cmds, invalid, err := script.Parse(in)
	if err != nil {
		return errors.Wrapf(err, "read script %s", path)
	}
	for _, lineErr := range invalid {
		logger.LogWarn("Skipping invalid line", map[string]interface{}{
			"line":  lineErr.Line,
			"text":  lineErr.Text,
			"error": lineErr.Err.Error(),
		})
	}

	m, err := a.newVolume()
	if err != nil {
		return err
	}

	text := a.cfg.Output.Format == "text"
	if text {
		if err := report.WriteProperties(out, m.Snapshot()); err != nil {
			return err
		}
		for _, lineErr := range invalid {
			if _, err := io.WriteString(out, "Error: "+lineErr.Error()+"\n"); err != nil {
				return err
			}
		}
	}

	var writeErr error
	afterStep := func(o runner.Outcome) {
		if !text || writeErr != nil {
			return
		}
		writeErr = report.WriteOutcome(out, o)
		if writeErr == nil && a.cfg.Output.ShowSteps {
			writeErr = report.WriteDiskMap(out, m.Snapshot())
		}
	}
	outcomes := runner.New(m, runner.WithAfterStep(afterStep)).Run(cmds)
	if writeErr != nil {
		return writeErr
	}

	logger.LogInfo("Script finished", map[string]interface{}{
		"script":   path,
		"commands": len(cmds),
		"invalid":  len(invalid),
		"rejected": countRejected(outcomes),
	})
	return a.writeFinal(out, m.Snapshot(), outcomes)
}

func (a *app) writeFinal(out io.Writer, s diskalloc.Snapshot, outcomes []runner.Outcome) error {
	if a.cfg.Output.Format == "yaml" {
		return report.WriteYAML(out, s, outcomes)
	}
	if outcomes == nil {
		if err := report.WriteProperties(out, s); err != nil {
			return err
		}
	} else if _, err := io.WriteString(out, "\n"); err != nil {
		return err
	}
	return report.WriteDiskMap(out, s)
}

func countRejected(outcomes []runner.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
