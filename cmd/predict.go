package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"defect-bot/internal/domain/entity"
)

var noRecord bool

var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Classify an image file and record the result in history",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *application) error {
		photo, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		out, err := a.app.InspectionService.Inspect(cmd.Context(), photo, !noRecord)
		if err != nil {
			return errors.New(entity.AsPredictionError(err).Message())
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, out.Outcome.Summary())
		fmt.Fprintf(w, "Renk: %s (%s)\n", out.Outcome.Color().Hex(), out.Outcome.Severity)
		if out.PersistErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: history not saved: %v\n", out.PersistErr)
		}
		return nil
	}),
}

func init() {
	predictCmd.Flags().BoolVar(&noRecord, "no-record", false, "do not add the result to history")
}
