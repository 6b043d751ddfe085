// Package cli implementa os comandos do binário agora: calculadoras offline
// de taxa e score, o jogo simulado e import/export do estado via API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/radieske/agora-market-poc/internal/betting"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/money"
)

var asJSON bool

// render escreve v como YAML (default) ou JSON indentado. O YAML sai do
// JSON para respeitar as tags json e a ordem dos campos.
func render(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if asJSON {
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	clearStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// clearStyle remove o estilo flow/aspas herdado do JSON
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func parseAmount(s string) (money.Amount, error) {
	a, err := money.ToInt(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if a <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return a, nil
}

func FeesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fees <amount>",
		Short: "Show the maker/taker/protocol fee breakdown for a bet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), money.CalculateBetFees(amount))
		},
	}
}

func PayoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "payout <amount> <odds>",
		Short: "Estimate the payout of a bet at the given odds (1-99)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			odds, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid odds %q", args[1])
			}
			q, err := betting.QuoteBet(amount, odds)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), q)
		},
	}
}

type scoreOutput struct {
	Outcome     bool    `json:"outcome"`
	Probability float64 `json:"probability"`
	Brier       string  `json:"brier"`
	Percentile  float64 `json:"percentile"`
}

func parseOutcome(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid outcome %q (use yes or no)", s)
}

func ScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <yes|no> <probability>",
		Short: "Brier score of a single prediction (probability of YES, 0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := parseOutcome(args[0])
			if err != nil {
				return err
			}
			p, err := strconv.ParseFloat(args[1], 64)
			if err != nil || p < 0 || p > 100 {
				return fmt.Errorf("probability must be between 0 and 100")
			}
			s := brier.CalculateBrierScore(outcome, p)
			return render(cmd.OutOrStdout(), scoreOutput{
				Outcome:     outcome,
				Probability: p,
				Brier:       brier.FormatScore(s),
				Percentile:  brier.ToPercentileScore(s),
			})
		},
	}
}

type badgeOutput struct {
	Badge brier.Badge `json:"badge"`
	brier.Info
}

func BadgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "badge <percentile>",
		Short: "Badge earned for a percentile score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid percentile %q", args[0])
			}
			b := brier.CalculateBadge(pct)
			return render(cmd.OutOrStdout(), badgeOutput{Badge: b, Info: brier.BadgeInfo(b)})
		},
	}
}

// Root monta a árvore de comandos do agora
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "agora",
		Short:         "Agora prediction market toolbox",
		Long:          `agora computes fees, payouts and Brier scores offline and moves state files in and out of a running agora-api.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")

	root.AddCommand(FeesCommand())
	root.AddCommand(PayoutCommand())
	root.AddCommand(ScoreCommand())
	root.AddCommand(BadgeCommand())
	root.AddCommand(GameCommand())
	root.AddCommand(StateCommand())
	return root
}
