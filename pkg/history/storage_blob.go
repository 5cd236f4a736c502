package history

import (
	"context"
	"crypto/md5"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// drivers for the schemes accepted by NewStorage
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

const snapshotContentType = "application/json; charset=utf-8"

// BlobStorage keeps snapshots as flat objects below a prefix of a bucket, so
// a bucket can be shared by several gistkv instances and other data.
type BlobStorage struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobStorage opens the bucket behind bucketURL, e.g. "gs://bucket-name".
func NewBlobStorage(ctx context.Context, bucketURL, prefix string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketURL)
	}
	return NewBlobStorageFromBucket(bucket, prefix), nil
}

// NewBlobStorageFromBucket takes ownership of an opened bucket.
func NewBlobStorageFromBucket(bucket *blob.Bucket, prefix string) *BlobStorage {
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		prefix += "/"
	}
	return &BlobStorage{bucket: bucket, prefix: prefix}
}

// Write uploads data with its MD5 so the provider rejects a corrupted upload.
func (b *BlobStorage) Write(ctx context.Context, key string, data []byte) error {
	object, err := b.object(key)
	if err != nil {
		return err
	}
	sum := md5.Sum(data)
	return b.bucket.WriteAll(ctx, object, data, &blob.WriterOptions{
		ContentType: snapshotContentType,
		ContentMD5:  sum[:],
	})
}

func (b *BlobStorage) Read(ctx context.Context, key string) ([]byte, error) {
	object, err := b.object(key)
	if err != nil {
		return nil, err
	}
	data, err := b.bucket.ReadAll(ctx, object)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, os.ErrNotExist
	}
	return data, err
}

// List only returns objects directly below the prefix, like a flat directory.
func (b *BlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix:    b.prefix + prefix,
		Delimiter: "/",
	})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to list snapshots")
		}
		if !obj.IsDir {
			keys = append(keys, strings.TrimPrefix(obj.Key, b.prefix))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (b *BlobStorage) Delete(ctx context.Context, key string) error {
	object, err := b.object(key)
	if err != nil {
		return err
	}
	if err := b.bucket.Delete(ctx, object); gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}

func (b *BlobStorage) object(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return b.prefix + key, nil
}
