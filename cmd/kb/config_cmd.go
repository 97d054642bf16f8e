package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			printJSON(map[string]any{
				"data_dir":         cfg.DataDir,
				"database_path":    cfg.DatabasePath,
				"knowledge_dir":    cfg.KnowledgeDir,
				"rules_path":       cfg.RulesPath,
				"nats_url":         cfg.NATSURL,
				"sync_interval":    cfg.SyncInterval.String(),
				"archive_bucket":   cfg.ArchiveS3Bucket,
				"archive_region":   cfg.ArchiveS3Region,
				"archive_prefix":   cfg.ArchiveS3Prefix,
				"archive_endpoint": cfg.ArchiveS3Endpoint,
			})
			return nil
		}

		fmt.Printf("Data dir:      %s\n", cfg.DataDir)
		fmt.Printf("Database:      %s\n", cfg.DatabasePath)
		fmt.Printf("Knowledge dir: %s\n", cfg.KnowledgeDir)
		fmt.Printf("Rules file:    %s\n", cfg.RulesPath)
		if cfg.NATSURL != "" {
			fmt.Printf("Bus:           %s\n", cfg.NATSURL)
		} else {
			fmt.Println("Bus:           (not configured)")
		}
		fmt.Printf("Sync interval: %s\n", cfg.SyncInterval)
		if cfg.ArchiveS3Bucket != "" {
			fmt.Printf("S3 archive:    s3://%s/%s (%s)\n",
				cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix, cfg.ArchiveS3Region)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
