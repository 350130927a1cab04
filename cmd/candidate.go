package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/auth"
)

var candidateCmd = &cobra.Command{
	Use:   "candidate",
	Short: "Manage candidates",
}

var candidateAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a candidate and issue an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		c := &assessment.Candidate{FullName: name, Email: email}
		if err := st.CreateCandidate(ctx, c); err != nil {
			return err
		}

		token, expires, err := auth.New(st, nil).Issue(ctx, c.ID, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		color.Green("Registered %s <%s>", c.FullName, c.Email)
		printToken(c.ID, token, expires)
		return nil
	},
}

var candidateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		cs, err := st.Candidates(cmd.Context())
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			fmt.Println("No candidates registered.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Name", "Email", "Registered"})
		for _, c := range cs {
			table.Append([]string{c.ID, c.FullName, c.Email, c.CreatedAt.Local().Format("2006-01-02 15:04")})
		}
		table.Render()
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <candidate id or email>",
	Short: "Issue a new access token for a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		c, err := st.Candidate(ctx, args[0])
		if err != nil {
			return err
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl == 0 {
			ttl = cfg.Auth.TokenTTL
		}
		token, expires, err := auth.New(st, nil).Issue(ctx, c.ID, ttl)
		if err != nil {
			return err
		}
		printToken(c.ID, token, expires)
		return nil
	},
}

func printToken(candidateID, token string, expires time.Time) {
	fmt.Printf("Candidate: %s\n", candidateID)
	fmt.Printf("Token:     %s\n", color.CyanString(token))
	fmt.Printf("Expires:   %s\n", expires.Local().Format("2006-01-02 15:04"))
}

func init() {
	candidateAddCmd.Flags().String("name", "", "Full name (required)")
	candidateAddCmd.Flags().String("email", "", "Email address (required)")
	_ = candidateAddCmd.MarkFlagRequired("name")
	_ = candidateAddCmd.MarkFlagRequired("email")

	tokenIssueCmd.Flags().Duration("ttl", 0, "Token lifetime (default auth.token_ttl)")

	candidateCmd.AddCommand(candidateAddCmd)
	candidateCmd.AddCommand(candidateListCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
}
