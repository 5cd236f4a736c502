package history

import (
	"context"
	"fmt"
	"strings"
)

// Storage defines the contract for snapshot persistence backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data with the given key.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys matching the given prefix, sorted alphabetically descending (newest first).
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data for the given key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the storage backend.
	Close() error
}

const (
	StorageTypeFilesystem = "filesystem"
	StorageTypeBlob       = "blob"
)

// supportedBlobSchemes lists the URL schemes supported by blob storage
var supportedBlobSchemes = []string{"gs://", "s3://", "azblob://", "mem://", "file://"}

// NewStorage opens the storage backend of the given type.
// typ is either "filesystem" (dir is used) or "blob" (bucketURL and prefix are used).
func NewStorage(ctx context.Context, typ, dir, bucketURL, prefix string) (Storage, error) {
	switch typ {
	case StorageTypeBlob:
		if bucketURL == "" {
			return nil, fmt.Errorf("blob bucket URL is required when storage type is 'blob' (supported schemes: %s)", strings.Join(supportedBlobSchemes, ", "))
		}
		if !IsValidBlobScheme(bucketURL) {
			return nil, fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s", bucketURL, strings.Join(supportedBlobSchemes, ", "))
		}
		return NewBlobStorage(ctx, bucketURL, prefix)
	case StorageTypeFilesystem, "":
		return NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", typ)
	}
}

// IsValidBlobScheme checks if the bucket URL has a supported scheme
func IsValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}

// validateKey accepts flat names only, for every backend alike
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
