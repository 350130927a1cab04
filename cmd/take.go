package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/app"
	"github.com/abhisek/nextstep/internal/engine"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/session"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take the assessment in the terminal",
	Long: `Open the full-screen test-taker for the candidate the token belongs to.

The token comes from --token or NEXTSTEP_TOKEN. Logs go to the configured
log file only, so they never draw over the screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = os.Getenv("NEXTSTEP_TOKEN")
		}
		if token == "" {
			return errors.New("a token is required: pass --token or set NEXTSTEP_TOKEN")
		}

		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		cfg.Log.Quiet = true
		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		// The observer runs on countdown goroutines and must not block; a
		// dropped tick is replaced by the next one.
		notes := make(chan session.Notification, 64)
		observer := func(n session.Notification) {
			select {
			case notes <- n:
			default:
				if n.Kind == session.NotifyForced {
					log.Warn("forced notification dropped", zap.String("sub_test", string(n.Key.SubTest)))
				}
			}
		}

		ctx := cmd.Context()
		eng, err := engine.Build(ctx, cfg, st, log, engine.Options{Observer: observer})
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer eng.Close()

		candidateID, err := eng.Auth.Authorize(ctx, token)
		if err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		candidate, err := st.Candidate(ctx, candidateID)
		if err != nil {
			return err
		}

		skip, _ := cmd.Flags().GetBool("skip-welcome")
		return app.Run(ctx, app.Options{
			Deps: screen.Deps{
				Token:       token,
				CandidateID: candidateID,
				Candidate:   candidate.FullName,
				Sessions:    eng.Orchestrator,
				Results:     eng.Aggregator,
			},
			Notes:       notes,
			SkipWelcome: skip,
		})
	},
}

func init() {
	takeCmd.Flags().String("token", "", "Candidate access token")
	takeCmd.Flags().Bool("skip-welcome", false, "Open the home screen directly")
}
