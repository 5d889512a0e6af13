package main

import (
	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   kpseq.DefaultAppName,
		Short: "kpseq: keyphrase extraction as sequence labeling",
		Long: `kpseq turns annotated keyphrase corpora into fixed-length sequence labeling
tensors, decodes tagger output back into keyphrases and scores them against
the gold annotations under several post-processing strategies.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			level := cfg.Log.Level
			if cmd.Flags().Changed("log-level") {
				level = logLevel
			}
			logger = kpseq.NewLogger(level)
			logger.Debug().Str("profile", cfg.Dataset.Profile).Str("folder", cfg.Dataset.Folder).Msg("configuration loaded")
			return nil
		},
	}
)

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.config/kpseq/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(prepareCmd, evaluateCmd, pairsCmd, vocabCmd, runsCmd)
}
