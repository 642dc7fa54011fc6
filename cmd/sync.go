package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trendhub/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync-prices",
	Short: "Refresh stored site prices for one product or every active product",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().String("product", "", "Product id; all active products when empty")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	productID, _ := cmd.Flags().GetString("product")
	ctx := context.Background()

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rt := newPricingRuntime(st)
	defer rt.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if productID != "" {
		id, err := store.ParseID(productID)
		if err != nil {
			return err
		}
		res, err := rt.syncer.SyncProduct(ctx, id)
		if err != nil {
			return err
		}
		return enc.Encode(res)
	}

	report, err := rt.syncer.SyncAll(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("price sync finished",
		zap.Int("products", report.Products),
		zap.Int("updated", report.Updated),
		zap.Int("siteErrors", report.SiteErrors),
		zap.Duration("took", report.Duration),
	)
	return enc.Encode(report)
}
