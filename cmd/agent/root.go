package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/policy"
	"github.com/petasbytes/travel-agent/memory"
	"github.com/spf13/cobra"
)

const defaultRequest = "Find a flight from DXB to CAI on 2026-01-27 and book the cheapest one."

type rootOptions struct {
	configPath string
	maxRounds  int
	transcript string
	today      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "travel-agent [request]",
		Short: "Search flights, check the calendar and book from one request",
		Long: "travel-agent answers a natural-language travel request. The model searches flights, " +
			"checks the calendar for the travel date and books the cheapest offer only when the date is free.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := defaultRequest
			if len(args) == 1 {
				request = args[0]
			}
			return runRequest(cmd, opts, request)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default: ./travel-agent.yaml, ~/.config/travel-agent/config.yaml)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 0, "override agent.max_rounds")
	cmd.Flags().StringVar(&opts.transcript, "transcript", "", "write the session transcript as JSON to this file")
	cmd.Flags().StringVar(&opts.today, "today", "", "current date given to the model, YYYY-MM-DD (default: today)")

	cmd.AddCommand(newActionsCmd(opts))
	return cmd
}

func runRequest(cmd *cobra.Command, opts *rootOptions, request string) error {
	today := opts.today
	if today == "" {
		today = time.Now().Format(calendar.DateLayout)
	} else if _, err := time.Parse(calendar.DateLayout, today); err != nil {
		return fmt.Errorf("invalid --today %q: want YYYY-MM-DD", today)
	}

	a, err := wireApp(opts, cmd.ErrOrStderr(), today)
	if err != nil {
		return err
	}

	res, runErr := a.runner.Run(cmd.Context(), request)
	if res != nil {
		if opts.transcript != "" {
			if err := writeTranscript(opts.transcript, res.Turns); err != nil {
				a.logger.Warn("transcript not written", "path", opts.transcript, "err", err)
			}
		}
		if err := policy.Audit(res.Turns); err != nil {
			a.logger.Error("policy audit failed", "session_id", res.SessionID, "err", err)
		} else {
			a.logger.Debug("policy audit passed", "session_id", res.SessionID)
		}
	}
	if runErr != nil {
		return fmt.Errorf("request not completed: %w", runErr)
	}
	if res.Answer == "" {
		return errors.New("the model returned an empty answer")
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
	return nil
}

func writeTranscript(path string, turns []memory.Turn) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := memory.WriteTranscript(f, turns); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
