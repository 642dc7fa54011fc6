package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trendingCmd = &cobra.Command{
	Use:   "recompute-trending",
	Short: "Recompute the trending score of every product from its counters",
	RunE:  runRecomputeTrending,
}

func init() {
	rootCmd.AddCommand(trendingCmd)
}

func runRecomputeTrending(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	start := time.Now()
	updated, err := st.Products.RecomputeTrending(ctx)
	if err != nil {
		return fmt.Errorf("recompute trending after %d products: %w", updated, err)
	}
	zap.L().Info("trending scores recomputed", zap.Int("products", updated), zap.Duration("took", time.Since(start)))
	return nil
}
