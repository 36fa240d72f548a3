package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GTDGit/kbank_qr/internal/sandbox"
	"github.com/GTDGit/kbank_qr/internal/worker"
)

var (
	runAll        bool
	watchInterval time.Duration
	watchMaxAge   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request an OAuth2 access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.runner.Session(cmd.Context())
		if err != nil {
			return err
		}
		expiresAt, err := s.ExpiresAt()
		if err != nil {
			return err
		}
		info := s.CustomerInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "client_id=%s token_type=%s expires_at=%s\n",
			info.ClientID, info.TokenType, expiresAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run sandbox scenarios",
	Long:  "Runs the given sandbox scenarios in order, or all of them with --all.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !runAll && len(args) == 0 {
			return fmt.Errorf("no scenario given; available: %v", sandbox.IDs())
		}
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if runAll {
			outcomes, err := a.runner.RunAll(cmd.Context())
			for _, out := range outcomes {
				printOutcome(cmd, out)
			}
			return err
		}
		for _, id := range args {
			out, err := a.runner.Run(cmd.Context(), id)
			if err != nil {
				return err
			}
			printOutcome(cmd, out)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List runnable sandbox scenarios",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, sc := range sandbox.Scenarios() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", sc.ID, sc.Description)
		}
	},
}

var sslCmd = &cobra.Command{
	Use:   "ssl",
	Short: "Call the mutual-TLS exercise endpoint with the configured client certificate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.runner.Session(cmd.Context())
		if err != nil {
			return err
		}
		resp, err := s.TestTwoWaySSL(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status=%s subject=%s\n", resp.Status, resp.CertificateInfo.Subject)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <origPartnerTxnUid>",
	Short: "Poll a requested QR until it is paid, cancelled, expired or voided",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", watchInterval)
		}
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.runner.Session(cmd.Context())
		if err != nil {
			return err
		}
		w := worker.NewStatusWatcher(s, sandbox.NewPartnerTxnUID, watchInterval, watchMaxAge)
		resp, err := w.Watch(cmd.Context(), a.runner.PartnerFor(""), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s txnNo=%s\n",
			args[0], resp.TransactionStatus, resp.TransactionNumber)
		return nil
	},
}

func printOutcome(cmd *cobra.Command, out *sandbox.Outcome) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-7s %s %s (%s)\n",
		out.Scenario, out.StatusCode, out.PartnerTxnUID, out.Detail, out.Duration)
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every scenario in catalog order")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "time between inquiries")
	watchCmd.Flags().DurationVar(&watchMaxAge, "max-age", 5*time.Minute, "give up after this long")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(sslCmd)
	rootCmd.AddCommand(watchCmd)
}
