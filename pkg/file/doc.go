// Package file stores received mail attachments on the local filesystem or
// in Amazon S3 and S3-compatible services.
//
// # Architecture
//
// The Storage interface has four methods: Save, Delete, Exists and URL.
// Two implementations are provided:
//   - LocalStorage: confined to a base directory; paths that resolve outside
//     of it fail with ErrInvalidPath
//   - S3Storage: keys live under an optional prefix; the client is an
//     interface so tests can use a mock
//
// Open selects the backend from a location string, which is how the IMAP
// receiver interprets its attachments_dir option:
//
//	./var/attachments                                   local directory
//	s3://bucket/prefix?region=eu-west-1                 AWS S3
//	s3://bucket?endpoint=http://localhost:9000&path_style=1   MinIO
//	s3://bucket?timeout=30s                             bounded uploads
//
// SanitizeFilename turns attachment names taken from mail headers into safe
// file names, folding accents with golang.org/x/text.
//
// # Usage
//
//	storage, err := file.Open(ctx, "s3://mail-archive/attachments")
//	if err != nil {
//	    return err
//	}
//	f, err := storage.Save(ctx, "42/"+file.SanitizeFilename(name), content, "application/pdf")
//	// f.Location == "s3://mail-archive/attachments/42/invoice.pdf"
//
// # Error Handling
//
// S3 errors are classified into sentinels (ErrFileNotFound, ErrBucketNotFound,
// ErrAccessDenied, ErrServiceUnavailable, ErrOperationTimeout ...). Local
// errors wrap ErrFailedToWriteFile, ErrFailedToCreateDirectory and friends.
package file
