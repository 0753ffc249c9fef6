// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide the small interface the merge report
// uploader needs. This abstraction supports both AWS S3 and self-hosted MinIO
// instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: EnsureBucket creates the report bucket on first use.
//   - PutObject: Uploads a report.
//   - GetObject: Retrieves a report as a stream.
//   - ListObjects: Lists reports under the configured prefix.
//   - RemoveObject: Prunes old reports.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
