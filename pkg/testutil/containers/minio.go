//go:build integration

package containers

import (
	"context"
	"net"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage     = "minio/minio:RELEASE.2024-01-16T16-07-38Z"
	minioPort      = "9000/tcp"
	minioAccessKey = "covault"
	minioSecretKey = "covault-secret"
)

// MinioContainer is an S3-compatible endpoint for the minio blob store tests.
type MinioContainer struct {
	Container testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewMinioContainer starts a single-node MinIO server.
func NewMinioContainer(t *testing.T) *MinioContainer {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{minioPort},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioAccessKey,
				"MINIO_ROOT_PASSWORD": minioSecretKey,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioPort),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("minio host: %v", err)
	}
	port, err := c.MappedPort(ctx, minioPort)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("minio port: %v", err)
	}

	return &MinioContainer{
		Container: c,
		Endpoint:  net.JoinHostPort(host, port.Port()),
		AccessKey: minioAccessKey,
		SecretKey: minioSecretKey,
	}
}
