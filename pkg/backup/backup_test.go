//go:build integration

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/o1-security/gumd/pkg/store"
)

// createTestClient builds an S3 client against a localstack endpoint,
// following the same LOCALSTACK_ENDPOINT convention the rest of this
// codebase's integration suites use.
func createTestClient(t *testing.T) *s3.Client {
	t.Helper()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	ctx := context.Background()
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		t.Fatalf("LoadDefaultConfig() error = %v", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &endpoint
		o.UsePathStyle = true
	})
}

func createTestBucket(t *testing.T, client *s3.Client, bucket string) {
	t.Helper()
	ctx := context.Background()
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}
	t.Cleanup(func() {
		objs, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
		if err == nil {
			for _, o := range objs.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: o.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	})
}

func newTestAccounts(t *testing.T) *store.Accounts {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"passwd", "shadow", "group", "gshadow"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("root:x:0:0:root:/root:/bin/bash\n"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return store.NewAccounts(store.Paths{
		Passwd:  filepath.Join(dir, "passwd"),
		Shadow:  filepath.Join(dir, "shadow"),
		Group:   filepath.Join(dir, "group"),
		Gshadow: filepath.Join(dir, "gshadow"),
	}, nil)
}

func TestSnapshotUploadsAllFourTables(t *testing.T) {
	client := createTestClient(t)
	bucket := "gumd-backup-test"
	createTestBucket(t, client, bucket)

	a := New(client, bucket, "snapshots")
	accounts := newTestAccounts(t)

	ctx := context.Background()
	if err := a.Snapshot(ctx, accounts); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	listing, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String("snapshots/"),
	})
	if err != nil {
		t.Fatalf("ListObjectsV2() error = %v", err)
	}
	if len(listing.Contents) != 4 {
		t.Errorf("uploaded %d objects, want 4 (passwd, shadow, group, gshadow)", len(listing.Contents))
	}
}
