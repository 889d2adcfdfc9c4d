// Package backup writes consistent SQLite snapshots and ships them to
// S3-compatible storage, keeping only the newest few.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

const (
	keyPrefix = "foodgram-"
	keySuffix = ".db"
	keyLayout = "2006-01-02T150405Z"
)

// ErrNotConfigured is returned when no bucket or credentials are set.
var ErrNotConfigured = errors.New("snapshot storage not configured")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Snapshotter struct {
	db     *sql.DB
	client s3Client
	bucket string
	prefix string
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Snapshotter that keeps the newest keep snapshots under
// cfg.Prefix. A keep of zero or less disables pruning.
func New(db *sql.DB, cfg S3Config, keep int, logger *slog.Logger) (*Snapshotter, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return newSnapshotter(db, newS3Client(cfg), cfg.Bucket, cfg.Prefix, keep, logger), nil
}

func newSnapshotter(db *sql.DB, client s3Client, bucket, prefix string, keep int, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		db:     db,
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		keep:   keep,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Run uploads one snapshot and prunes old ones. It returns the object key.
func (s *Snapshotter) Run(ctx context.Context) (string, error) {
	dir, err := os.MkdirTemp("", "foodgram-snapshot-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "snapshot.db")
	if err := WriteSnapshot(ctx, s.db, file); err != nil {
		return "", err
	}
	if err := checkIntegrity(ctx, file); err != nil {
		return "", err
	}

	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	key := path.Join(s.prefix, keyPrefix+s.now().Format(keyLayout)+keySuffix)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	s.logger.Info("snapshot uploaded", "key", key, "bytes", stat.Size())

	if err := s.prune(ctx); err != nil {
		s.logger.Warn("prune snapshots", "error", err)
	}
	return key, nil
}

// prune deletes all but the newest s.keep snapshots. Keys sort by time.
func (s *Snapshotter) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}

	listPrefix := keyPrefix
	if s.prefix != "" {
		listPrefix = s.prefix + "/" + keyPrefix
	}

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			if k := aws.ToString(obj.Key); strings.HasSuffix(k, keySuffix) {
				keys = append(keys, k)
			}
		}
	}

	if len(keys) <= s.keep {
		return nil
	}
	sort.Strings(keys)
	for _, k := range keys[:len(keys)-s.keep] {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		}); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", k, err)
		}
		s.logger.Info("snapshot pruned", "key", k)
	}
	return nil
}

// WriteSnapshot writes a consistent copy of db to file, replacing it.
func WriteSnapshot(ctx context.Context, db *sql.DB, file string) error {
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove old snapshot: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", file); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	return nil
}

func checkIntegrity(ctx context.Context, file string) error {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
