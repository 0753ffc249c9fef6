// Package config provides configuration management for the asset merger.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file; command-line flags override the loaded values.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Merge: workers, ignore globs, opaque extensions, staged suffix, output directory
//   - Log: Logging level and format
//   - Journal: optional MySQL/SQLite run journal
//   - Storage: optional S3/MinIO report upload
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Merge.Workers)
package config
