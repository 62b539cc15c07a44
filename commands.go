package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/ppi-network-service/pkg/centrality"
	"github.com/gilchrisn/ppi-network-service/pkg/config"
	"github.com/gilchrisn/ppi-network-service/pkg/fetcher"
	"github.com/gilchrisn/ppi-network-service/pkg/layout"
	"github.com/gilchrisn/ppi-network-service/pkg/service"
)

// newRootCmd builds a fresh command tree; tests construct their own
func newRootCmd() *cobra.Command {
	var configFile string
	cfg := config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "ppi",
		Short: "Protein-protein interaction network analysis",
		Long: `ppi fetches the interaction partners of a protein from BioGRID or STRING,
builds the interaction network and reports five node centrality measures.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := cfg.LoadFromFile(configFile); err != nil {
					return fmt.Errorf("loading config %s: %w", configFile, err)
				}
			}
			cfg.SetupLogging()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newScoreCmd(cfg))
	return rootCmd
}

// newAnalysisService wires fetcher, engine and layout from configuration
func newAnalysisService(cfg *config.Config) *service.AnalysisService {
	if cfg.BioGRIDAccessKey() == "" {
		log.Warn().Msg("No BioGRID access key configured; set PPI_BIOGRID_ACCESS_KEY")
	}

	client := fetcher.NewClient(cfg.HTTPClient(), log.Logger, cfg.Providers()...)
	engine := centrality.NewEngine(cfg.CentralityOptions(), log.Logger)
	return service.NewAnalysisService(client, engine, layout.NewGenerator(log.Logger), log.Logger)
}
