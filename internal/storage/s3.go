// Package storage archives generated audit reports in S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
)

// ErrBucketNotConfigured is returned when archiving without a bucket.
var ErrBucketNotConfigured = errors.New("report bucket not configured")

// ObjectPutter is the subset of *s3.Client used by ReportArchive.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectPutter = (*s3.Client)(nil)

// ArchiveRequest is one audit run's rendered output.
type ArchiveRequest struct {
	RunID  string
	Report string
	CSV    []byte
}

// ArchiveResult holds the object keys written for a run.
type ArchiveResult struct {
	Bucket    string `json:"bucket"`
	ReportKey string `json:"report_key"`
	CSVKey    string `json:"csv_key"`
}

// ReportArchive uploads reports under prefix/YYYY/MM/DD/<run id>/.
type ReportArchive struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewReportArchive creates an archive backed by client.
func NewReportArchive(client ObjectPutter, bucket, prefix string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// NewS3ReportArchive loads the default AWS credential chain for region.
func NewS3ReportArchive(ctx context.Context, region, bucket, prefix string) (*ReportArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "storage: load AWS config")
	}
	return NewReportArchive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Archive uploads the markdown report and the CSV export.
func (a *ReportArchive) Archive(ctx context.Context, req ArchiveRequest) (*ArchiveResult, error) {
	if a.bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	dir := path.Join(a.prefix, a.now().UTC().Format("2006/01/02"), req.RunID)
	result := &ArchiveResult{
		Bucket:    a.bucket,
		ReportKey: path.Join(dir, "report.md"),
		CSVKey:    path.Join(dir, "trips.csv"),
	}

	if err := a.put(ctx, result.ReportKey, []byte(req.Report), "text/markdown; charset=utf-8"); err != nil {
		return nil, err
	}
	if err := a.put(ctx, result.CSVKey, req.CSV, "text/csv; charset=utf-8"); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *ReportArchive) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return eris.Wrapf(err, "storage: put %s", key)
	}
	return nil
}
