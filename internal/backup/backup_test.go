package backup

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func (m *mockS3Client) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = store.NewUserStore(db).Create("a@example.com", "alice", "A", "B", "hash")
	require.NoError(t, err)
	return db
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, S3Config{Bucket: "b"}, 3, slog.Default())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWriteSnapshot(t *testing.T) {
	db := testDB(t)
	file := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, os.WriteFile(file, []byte("stale"), 0o600))

	require.NoError(t, WriteSnapshot(context.Background(), db, file))

	copyDB, err := sql.Open("sqlite", file)
	require.NoError(t, err)
	defer copyDB.Close()

	var n int
	require.NoError(t, copyDB.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRunUploadsSnapshot(t *testing.T) {
	db := testDB(t)
	client := newMockS3()
	s := newSnapshotter(db, client, "bucket", "/snapshots/", 0, slog.Default())
	s.now = fixedClock(time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC))

	key, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/foodgram-2026-10-19T030000Z.db", key)

	data := client.objects[key]
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "SQLite format 3"))
}

func TestRunPrunesOldSnapshots(t *testing.T) {
	db := testDB(t)
	client := newMockS3()
	for _, k := range []string{
		"snapshots/foodgram-2026-01-01T000000Z.db",
		"snapshots/foodgram-2026-02-01T000000Z.db",
		"snapshots/foodgram-2026-03-01T000000Z.db",
		"snapshots/notes.txt",
		"other/foodgram-2020-01-01T000000Z.db",
	} {
		client.objects[k] = []byte("x")
	}

	s := newSnapshotter(db, client, "bucket", "snapshots", 2, slog.Default())
	s.now = fixedClock(time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC))

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"other/foodgram-2020-01-01T000000Z.db",
		"snapshots/foodgram-2026-03-01T000000Z.db",
		"snapshots/foodgram-2026-10-19T030000Z.db",
		"snapshots/notes.txt",
	}, client.keys())
}
