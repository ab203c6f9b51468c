package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakePutter() *fakePutter {
	return &fakePutter{objects: make(map[string]string), types: make(map[string]string)}
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestReportArchive_Archive(t *testing.T) {
	t.Parallel()

	putter := newFakePutter()
	archive := NewReportArchive(putter, "fleet-reports", "audit")
	archive.now = func() time.Time { return time.Date(2024, 5, 30, 23, 0, 0, 0, time.UTC) }

	res, err := archive.Archive(context.Background(), ArchiveRequest{
		RunID:  "run-1",
		Report: "# Trip Audit Report\n",
		CSV:    []byte("Date,Driver\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "audit/2024/05/30/run-1/report.md", res.ReportKey)
	assert.Equal(t, "audit/2024/05/30/run-1/trips.csv", res.CSVKey)
	assert.Equal(t, "# Trip Audit Report\n", putter.objects["fleet-reports/"+res.ReportKey])
	assert.Equal(t, "Date,Driver\n", putter.objects["fleet-reports/"+res.CSVKey])
	assert.Equal(t, "text/csv; charset=utf-8", putter.types["fleet-reports/"+res.CSVKey])
}

func TestReportArchive_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewReportArchive(newFakePutter(), "", "audit").Archive(context.Background(), ArchiveRequest{RunID: "r"})
	assert.ErrorIs(t, err, ErrBucketNotConfigured)

	boom := errors.New("access denied")
	putter := newFakePutter()
	putter.err = boom
	_, err = NewReportArchive(putter, "bucket", "").Archive(context.Background(), ArchiveRequest{RunID: "r"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
