package object_storage

import (
	"fmt"

	"github.com/rakutentech/fleetbench/config"
)

const (
	nexusStorageProvider = "nexus"
	gcpStorageProvider   = "gcp"
	minioStorageProvider = "minio"
)

var allStorageProvider = []string{nexusStorageProvider, gcpStorageProvider, minioStorageProvider}

// NewStorage picks the backend named by object_storage.provider, nexus when unset.
func NewStorage(c *config.FleetbenchConfig) (StorageInterface, error) {
	if c.ObjectStorage == nil {
		return nil, fmt.Errorf("object_storage is not configured")
	}
	storageProvider := c.ObjectStorage.Provider
	if storageProvider == "" {
		//default to Nexus
		storageProvider = nexusStorageProvider
	}
	switch storageProvider {
	case nexusStorageProvider:
		return NewNexusStorage(c), nil
	case gcpStorageProvider:
		gs, err := NewGcpStorage(c)
		if err != nil {
			return nil, err
		}
		return gs, nil
	case minioStorageProvider:
		ms, err := NewMinioStorage(c)
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		return nil, fmt.Errorf("Unknown storage type %s, valid storage types are %v", storageProvider, allStorageProvider)
	}
}
