package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"travlysis/internal/auth"
	"travlysis/internal/config"
	"travlysis/internal/tripstats"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "travlysis",
		Short: "Travlysis trip tools",
		Long: `Operator tools for the travlysis trip tracker: replay recorded fixes
through the trip statistics engine, classify speeds and issue device tokens.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(modeCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// replayCmd feeds a JSON-lines fix file through a fresh engine
func replayCmd() *cobra.Command {
	var speedCeiling float64
	var skipInvalid bool

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Replay recorded fixes and print the trip snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			engine := tripstats.NewEngine(tripstats.WithSpeedCeiling(speedCeiling))
			if err := replay(engine, in, cmd.ErrOrStderr(), skipInvalid); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Snapshot())
		},
	}

	cmd.Flags().Float64Var(&speedCeiling, "speed-ceiling", tripstats.DefaultSpeedCeilingKmh, "Implied speed (km/h) above which a jump is flagged")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip fixes with invalid coordinates instead of failing")
	return cmd
}

func replay(engine *tripstats.Engine, in io.Reader, warn io.Writer, skipInvalid bool) error {
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var fix tripstats.GeoFix
		if err := json.Unmarshal([]byte(text), &fix); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		faults, err := engine.RecordFix(fix)
		var fixErr *tripstats.InvalidFixError
		if errors.As(err, &fixErr) && skipInvalid {
			fmt.Fprintf(warn, "line %d: skipped: %v\n", line, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		for _, f := range faults {
			fmt.Fprintf(warn, "line %d: %s: %s\n", line, f.Kind, f.Detail)
		}
	}
	return scanner.Err()
}

func modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode <speed-kmh>",
		Short: "Classify an average speed into a transport mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speed, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid speed %q: %w", args[0], err)
			}
			mode, err := tripstats.GuessMode(speed)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
}

// tokenCmd issues a bearer token for a device or test user
func tokenCmd() *cobra.Command {
	var userID string
	var secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token accepted by the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = config.Load().JWTSecret
			}
			token, err := auth.SignToken(secret, userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id placed in the token")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
