package file

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Open returns the storage for location. s3://bucket/prefix selects S3;
// the query may set region, endpoint, base_url, path_style and timeout (a
// Go duration bounding each upload). Anything else is a local directory.
//
//	file.Open(ctx, "./var/attachments")
//	file.Open(ctx, "s3://mail-archive/attachments?region=eu-west-1")
func Open(ctx context.Context, location string, opts ...S3Option) (Storage, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrInvalidLocation
	}

	if !strings.HasPrefix(strings.ToLower(location), "s3://") {
		return NewLocalStorage(location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", ErrInvalidLocation, location)
	}

	q := u.Query()
	cfg := S3Config{
		Bucket:   u.Host,
		Prefix:   strings.Trim(u.Path, "/"),
		Region:   q.Get("region"),
		Endpoint: q.Get("endpoint"),
		BaseURL:  q.Get("base_url"),
	}
	if v := q.Get("path_style"); v != "" {
		cfg.ForcePathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: path_style: %v", ErrInvalidLocation, err)
		}
	}

	if v := q.Get("timeout"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %v", ErrInvalidLocation, err)
		}
		opts = append([]S3Option{WithS3UploadTimeout(timeout)}, opts...)
	}

	return NewS3Storage(ctx, cfg, opts...)
}
