package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/engine"
)

var restartCmd = &cobra.Command{
	Use:   "restart <candidate id or email> <sub-test>",
	Short: "Discard a candidate's attempt and start a new one",
	Long: `Start a new attempt of one sub-test. Responses of the abandoned attempt
stay in history but no longer count, and the sub-test's stored result is
removed until the new attempt completes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subTest, err := assessment.ParseSubTest(args[1])
		if err != nil {
			return err
		}

		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		c, err := st.Candidate(ctx, args[0])
		if err != nil {
			return err
		}

		eng, err := engine.Build(ctx, cfg, st, log, engine.Options{})
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer eng.Close()

		token, _, err := eng.Auth.Issue(ctx, c.ID, time.Minute)
		if err != nil {
			return err
		}
		sess, err := eng.Orchestrator.Restart(ctx, token, subTest)
		if err != nil {
			return err
		}

		color.Green("%s restarted for %s: attempt %d", subTest.Label(), c.Email, sess.Attempt)
		return nil
	},
}
