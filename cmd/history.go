package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"defect-bot/internal/domain/entity"
)

var (
	historySearch   string
	historyCategory string
	historyAsc      bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and edit prediction history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show history sorted by time, optionally searched and filtered",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *application) error {
		return printHistory(cmd.OutOrStdout(), a.app.History.Query(historyQuery()))
	}),
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <n>...",
	Short: "Delete entries by their 1-based position in the listed view",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *application) error {
		offsets := make([]int, 0, len(args))
		for _, arg := range args {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid position %q", arg)
			}
			offsets = append(offsets, n-1)
		}

		removed, err := a.app.History.RemoveAt(cmd.Context(), historyQuery(), offsets)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d, %d left\n", removed, a.app.History.Len())
		return nil
	}),
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all history entries",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *application) error {
		return a.app.History.Clear(cmd.Context())
	}),
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyDeleteCmd} {
		c.Flags().StringVarP(&historySearch, "search", "s", "", "case-insensitive search in result labels")
		c.Flags().StringVarP(&historyCategory, "filter", "f", entity.CategoryAll, "category filter")
		c.Flags().BoolVar(&historyAsc, "asc", false, "oldest first")
	}

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func historyQuery() entity.HistoryQuery {
	return entity.HistoryQuery{
		Search:     historySearch,
		Category:   historyCategory,
		Descending: !historyAsc,
	}
}

func printHistory(w io.Writer, entries []entity.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "history is empty")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRESULT\tCONFIDENCE\tCOLOR\tWHEN\tSIZE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			e.Result,
			entity.FormatConfidence(e.Confidence),
			e.ColorHex,
			humanize.Time(e.Timestamp),
			humanize.Bytes(uint64(len(e.ImageData))))
	}
	return tw.Flush()
}
