// Package archive writes discovery run snapshots to blob storage for offline
// analysis. Archival is best-effort everywhere: a failed write is logged and
// never fails the request that produced the snapshot.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"

	"github.com/scoutlabs/brandscout/internal/models"
)

// Archiver stores one snapshot per completed discovery run.
type Archiver interface {
	ArchiveRun(ctx context.Context, requestID string, result models.DiscoveryResult) error
}

// Snapshot is the archived document for one run.
type Snapshot struct {
	RequestID  string                 `json:"request_id"`
	ArchivedAt time.Time              `json:"archived_at"`
	Result     models.DiscoveryResult `json:"result"`
}

// AzureArchiver implements Archiver on Azure Blob Storage using managed
// identity.
type AzureArchiver struct {
	client        *azblob.Client
	containerName string
}

var _ Archiver = (*AzureArchiver)(nil)

func NewAzureArchiver(accountName, containerName string) (*AzureArchiver, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	a := &AzureArchiver{client: client, containerName: containerName}
	if err := a.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}
	return a, nil
}

func (a *AzureArchiver) ensureContainer() error {
	_, err := a.client.CreateContainer(context.Background(), a.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", a.containerName)
	} else {
		logrus.Infof("Created container %s", a.containerName)
	}
	return nil
}

func (a *AzureArchiver) ArchiveRun(ctx context.Context, requestID string, result models.DiscoveryResult) error {
	snapshot := Snapshot{
		RequestID:  requestID,
		ArchivedAt: time.Now().UTC(),
		Result:     result,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", requestID, err)
	}

	blobName := fmt.Sprintf("runs/%s/%s.json", snapshot.ArchivedAt.Format("2006-01-02"), requestID)
	_, err = a.client.UploadBuffer(ctx, a.containerName, blobName, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", blobName, err)
	}

	logrus.Infof("Archived discovery run %s to %s", requestID, blobName)
	return nil
}

// NoopArchiver is used when no storage account is configured.
type NoopArchiver struct{}

var _ Archiver = (*NoopArchiver)(nil)

func (NoopArchiver) ArchiveRun(ctx context.Context, requestID string, result models.DiscoveryResult) error {
	return nil
}
