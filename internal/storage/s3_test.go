package storage

import (
	"context"
	"io"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	minioContainer "github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	testAccessKey = "minioadmin"
	testSecretKey = "minioadmin"
)

// setupMinio starts a MinIO container and creates a bucket for the test.
func setupMinio(t *testing.T, bucket string) string {
	t.Helper()

	ctx := context.Background()

	container, err := minioContainer.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minioContainer.WithUsername(testAccessKey),
		minioContainer.WithPassword(testSecretKey),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	mc, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(testAccessKey, testSecretKey, ""),
		Secure: false,
	})
	require.NoError(t, err)
	require.NoError(t, mc.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}))

	return endpoint
}

func TestUploadArtifactRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	bucket := "bodesweep-test"
	endpoint := setupMinio(t, bucket)

	store, err := NewArtifactStore(S3Config{
		Bucket:    bucket,
		Endpoint:  endpoint,
		Region:    "us-east-1",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	csvData := []byte("CH1_FREQ [Hz], CH1_AMPL [Vpp], CH2_FREQ [Hz], CH2_AMPL [Vpp], PHASE_DIFF [Deg], GAIN [dB]\n100, 1, 100, 0.5, -45, -6.0206\n")
	key := "sweeps/Bode_03-07-2024_14-05-09.csv"
	require.NoError(t, store.UploadArtifact(ctx, key, "text/csv", csvData))

	// Read the object back through the MinIO client to verify the upload.
	mc, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(testAccessKey, testSecretKey, ""),
		Secure: false,
	})
	require.NoError(t, err)

	obj, err := mc.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, csvData, got)

	url, err := store.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)
}

func TestUploadArtifactRejectsUnknownContentType(t *testing.T) {
	store := &s3Store{bucket: "irrelevant"}
	err := store.validateContentType("application/zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid content type")
}

func TestNewArtifactStoreRequiresBucket(t *testing.T) {
	_, err := NewArtifactStore(S3Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}
