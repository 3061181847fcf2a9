package ctl

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aquariumd/pkg/types"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseCategory accepts a category name or its numeric value.
func parseCategory(s string) (int, error) {
	switch strings.ToUpper(s) {
	case "HAPPY":
		return int(types.CategoryHappy), nil
	case "SAD":
		return int(types.CategorySad), nil
	case "ANGRY":
		return int(types.CategoryAngry), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= types.NumCategories {
		return 0, fmt.Errorf("invalid category %q: want HAPPY, SAD, ANGRY or 0-2", s)
	}
	return n, nil
}

// BuildRootCmd constructs the aquactl command tree.
func BuildRootCmd() *cobra.Command {
	var addr string
	var c *client

	root := &cobra.Command{
		Use:           "aquactl",
		Short:         "Control a running aquariumd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", envOr("AQUACTL_ADDR", "127.0.0.1:8080"), "aquariumd address (defaults AQUACTL_ADDR or 127.0.0.1:8080)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		c = newClient(addr)
	}

	statusCmd := &cobra.Command{Use: "status", Short: "Show daemon and animation status", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.StatusResponse
		if err := c.get("/status", &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}}

	moodCmd := &cobra.Command{Use: "mood", Short: "Show the current mood evaluation", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.MoodResult
		if err := c.get("/mood", &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}}

	snapshotCmd := &cobra.Command{Use: "snapshot", Short: "Show the full state snapshot", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.Snapshot
		if err := c.get("/snapshot", &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}}

	setCmd := &cobra.Command{
		Use:     "set <kind> <value>",
		Short:   "Update a water parameter",
		Example: "  aquactl set ph 7.2\n  aquactl set ammonia 0.25\n  aquactl set feed_interval_sec 21600",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %v", args[1], err)
			}
			var out types.Snapshot
			if err := c.post("/params", types.UpdateParamRequest{Kind: args[0], Value: v}, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	feedCmd := &cobra.Command{Use: "feed", Short: "Log a feeding now", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.Snapshot
		if err := c.post("/events", types.EventRequest{Kind: "feed"}, &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}}

	cleanCmd := &cobra.Command{Use: "clean", Short: "Log a tank clean now", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.Snapshot
		if err := c.post("/events", types.EventRequest{Kind: "clean"}, &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}}

	categoryCmd := &cobra.Command{
		Use:     "category <happy|sad|angry>",
		Short:   "Force the animation category until the next re-evaluation",
		Example: "  aquactl category angry\n  aquactl category 0",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			var out types.StatusResponse
			if err := c.post("/category", types.CategoryRequest{Category: n}, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	adviceCmd := &cobra.Command{Use: "advice", Short: "Ask the advice backend for a care tip", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.AdviceResponse
		if err := c.post("/advice", nil, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Advice)
		return nil
	}}

	var histKind string
	var histDays int
	historyCmd := &cobra.Command{Use: "history", Short: "Show daily event counts", RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Kind string           `json:"kind"`
			Days []types.DayCount `json:"days"`
		}
		path := fmt.Sprintf("/history/events?kind=%s&days=%d", histKind, histDays)
		if err := c.get(path, &out); err != nil {
			return err
		}
		for _, d := range out.Days {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %d\n", d.Day, d.Count)
		}
		return nil
	}}
	historyCmd.Flags().StringVar(&histKind, "kind", "feed", "Event kind: feed or clean")
	historyCmd.Flags().IntVar(&histDays, "days", 7, "Trailing window in days")

	var exportOut string
	exportCmd := &cobra.Command{Use: "export", Short: "Export the event log as CSV", RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return c.getRaw("/history/export", w)
	}}
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write CSV to a file instead of stdout")

	root.AddCommand(statusCmd, moodCmd, snapshotCmd, setCmd, feedCmd, cleanCmd, categoryCmd, adviceCmd, historyCmd, exportCmd)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := BuildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
