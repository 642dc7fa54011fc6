package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trendhub/internal/config"
	"trendhub/internal/sources"
)

var seedCmd = &cobra.Command{
	Use:   "seed-sites",
	Short: "Insert or update e-commerce sites from a YAML file",
	RunE:  runSeedSites,
}

func init() {
	seedCmd.Flags().String("file", "", "Site list, defaults to SITES_FILE")
	rootCmd.AddCommand(seedCmd)
}

func runSeedSites(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.SitesFile
	}
	sites, err := config.LoadSites(path)
	if err != nil {
		return err
	}
	for _, site := range sites {
		if err := sources.ValidateSelectors(site.Scraping.Selectors); err != nil {
			return fmt.Errorf("site %s: %w", site.Name, err)
		}
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	created := 0
	for _, site := range sites {
		inserted, err := st.Sites.UpsertByName(ctx, site)
		if err != nil {
			return fmt.Errorf("seed %s: %w", site.Name, err)
		}
		if inserted {
			created++
		}
		zap.L().Info("site seeded", zap.String("site", site.Name), zap.Bool("created", inserted))
	}
	fmt.Printf("%d sites seeded, %d new\n", len(sites), created)
	return nil
}
