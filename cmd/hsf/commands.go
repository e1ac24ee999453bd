package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/ha-stats-fixer/internal/config"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
)

// requestFlags are the flags shared by preview, diagnose and apply.
type requestFlags struct {
	database  string
	entity    string
	start     string
	end       string
	timezone  string
	columns   string
	shortTerm bool
	offset    string
	yes       bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.database, "db", "", "recorder database (default $DATABASE_PATH)")
	fs.StringVarP(&f.entity, "entity", "e", "", "statistic id, e.g. sensor.energy_meter")
	fs.StringVarP(&f.start, "start", "s", "", `window start, local "YYYY-MM-DD HH:MM" (inclusive)`)
	fs.StringVar(&f.end, "end", "", `window end, local "YYYY-MM-DD HH:MM" (exclusive, optional)`)
	fs.StringVar(&f.timezone, "tz", "", "IANA timezone of start and end (default $TIMEZONE)")
	fs.StringVar(&f.columns, "columns", "", "columns to correct: sum, state or both (default $COLUMNS)")
	fs.BoolVar(&f.shortTerm, "short-term", false, "also correct statistics_short_term")

	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("start")
}

// request builds the operation request. Flags that were not given fall back
// to the configuration.
func (f *requestFlags) request(cmd *cobra.Command, cfg *config.Config) (fixer.Request, error) {
	req := fixer.Request{
		DatabasePath:     f.database,
		EntityID:         f.entity,
		Start:            f.start,
		End:              f.end,
		Timezone:         f.timezone,
		IncludeShortTerm: f.shortTerm,
	}

	if cfg != nil {
		if !cmd.Flags().Changed("db") {
			req.DatabasePath = cfg.DatabasePath
		}
		if !cmd.Flags().Changed("tz") {
			req.Timezone = cfg.Timezone
		}
		if !cmd.Flags().Changed("short-term") {
			req.IncludeShortTerm = cfg.IncludeShortTerm
		}
		req.Columns = cfg.Columns
	}

	if cmd.Flags().Changed("columns") {
		cols, err := models.ParseColumns(f.columns)
		if err != nil {
			return req, err
		}
		req.Columns = cols
	}

	return req, nil
}

func (c *cli) newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Count and list the rows inside the window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := c.flags.request(cmd, c.cfg)
			if err != nil {
				return err
			}
			res, err := fixer.New().Preview(req)
			printReport(cmd.OutOrStdout(), &res.Report)
			return err
		},
	}
	c.flags.register(cmd)
	return cmd
}

func (c *cli) newDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Summarize the rows around the window boundaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := c.flags.request(cmd, c.cfg)
			if err != nil {
				return err
			}
			res, err := fixer.New().Diagnose(req)
			printReport(cmd.OutOrStdout(), &res.Report)
			return err
		},
	}
	c.flags.register(cmd)
	return cmd
}

func (c *cli) newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Back up the database and add the offset to the rows inside the window",
		Long: `apply copies the database next to itself and then adds --offset to the
selected columns of every row inside the window, in one transaction.

If the backup cannot be made, apply asks whether to continue without one.
--yes answers that question with yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := c.flags.request(cmd, c.cfg)
			if err != nil {
				return err
			}

			confirm := confirmOnPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
			if c.flags.yes {
				confirm = func(error) bool { return true }
			}

			res, err := fixer.New().Apply(fixer.ApplyRequest{
				Request:              req,
				Offset:               c.flags.offset,
				ConfirmWithoutBackup: confirm,
			})
			printReport(cmd.OutOrStdout(), &res.Report)
			return err
		},
	}
	c.flags.register(cmd)
	cmd.Flags().StringVarP(&c.flags.offset, "offset", "o", "", `value added to each row, e.g. "-50" or "12,5"`)
	cmd.Flags().BoolVarP(&c.flags.yes, "yes", "y", false, "continue without a backup if the backup fails")
	_ = cmd.MarkFlagRequired("offset")
	return cmd
}

// confirmOnPrompt asks on out and reads the answer from in. Anything but
// "y" or "yes" declines.
func confirmOnPrompt(in io.Reader, out io.Writer) func(error) bool {
	return func(backupErr error) bool {
		fmt.Fprintf(out, "Backup failed: %v\nProceed WITHOUT a backup? [y/N] ", backupErr)

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func printReport(w io.Writer, r *fixer.Report) {
	for _, line := range r.Transcript {
		fmt.Fprintln(w, line)
	}
}
