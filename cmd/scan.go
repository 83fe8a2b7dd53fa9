package cmd

import (
	"fmt"

	"melodex/cache"
	"melodex/config"
	"melodex/core/catalog"
	"melodex/db"
	"melodex/logger"
	"melodex/repository"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index new audio files from the music directory",
	Long:  `Scan the managed music directory once and index any files not yet in the catalog, without starting the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    cfg.LogMaxMB,
			MaxBackups: 3,
			MaxAge:     cfg.LogMaxAge,
			Compress:   true,
		})

		if err := db.ConnectDB(cfg); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.CloseDB()

		if err := db.InitDB(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		engine := catalog.NewEngine(repository.NewSQLiteTrackRepository(), cache.NewTrackCache(), cfg)
		if err := engine.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize catalog: %w", err)
		}

		indexed, err := engine.ScanDirectory()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		fmt.Printf("Indexed %d new tracks from %s\n", indexed, engine.MusicDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
