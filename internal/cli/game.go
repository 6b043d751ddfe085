package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/game"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
)

type simulateOutput struct {
	state.GameResult
	BadgeInfo brier.Info   `json:"badgeInfo"`
	Advice    brier.Advice `json:"advice"`
}

func GameCommand() *cobra.Command {
	gameCmd := &cobra.Command{
		Use:   "game",
		Short: "Calibration game tools",
	}

	var (
		side       string
		confidence float64
		seed       uint64
	)
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Play a full offline game with a fixed side and confidence",
		Long: `Play all rounds of the calibration game against an in-memory store.

Outcomes come from a 50% coin flip; pass --seed to make the run reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := brier.Side(side)
			if s != brier.SideYes && s != brier.SideNo {
				return fmt.Errorf("side must be YES or NO")
			}
			store := state.New(zap.NewNop(), nil, "")
			eng := game.NewEngine(zap.NewNop(), store, brier.NewCoinFlip(seed))

			res, err := eng.Simulate(cmd.Context(), func(int) game.SubmitRequest {
				return game.SubmitRequest{Side: s, Confidence: confidence}
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), simulateOutput{
				GameResult: res,
				BadgeInfo:  brier.BadgeInfo(res.Badge),
				Advice:     brier.GetCalibrationAdvice(res.Rounds),
			})
		},
	}
	simulate.Flags().StringVar(&side, "side", "YES", "Side picked every round (YES or NO)")
	simulate.Flags().Float64Var(&confidence, "confidence", 70, "Confidence in the picked side (5-95, steps of 5)")
	simulate.Flags().Uint64Var(&seed, "seed", 0, "Coin flip seed (0 = random)")

	gameCmd.AddCommand(simulate)
	return gameCmd
}
