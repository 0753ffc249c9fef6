package report

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"asset-merger/core/storage"
	"asset-merger/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCfg = storage.Config{Bucket: "merge-reports", Prefix: "reports/", Region: "us-east-1"}

func TestStore_Upload(t *testing.T) {
	t.Run("CreatesBucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "merge-reports").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "merge-reports", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
		client.On("PutObject", mock.Anything, "merge-reports", "reports/merge_report_1.json", mock.Anything, int64(2), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/json"
		})).Return(minio.UploadInfo{}, nil)

		key, err := NewStore(client, testCfg, nil).Upload(context.Background(), "merge_report_1.json", []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, "reports/merge_report_1.json", key)
		client.AssertExpectations(t)
	})

	t.Run("PutFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "merge-reports").Return(true, nil)
		client.On("PutObject", mock.Anything, "merge-reports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("denied"))

		_, err := NewStore(client, testCfg, nil).Upload(context.Background(), "x.txt", []byte("x"))
		assert.ErrorContains(t, err, "failed to upload reports/x.txt")
	})

	t.Run("BucketCheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "merge-reports").Return(false, errors.New("offline"))

		_, err := NewStore(client, testCfg, nil).Upload(context.Background(), "x.txt", nil)
		assert.ErrorContains(t, err, "offline")
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStore_List(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "merge-reports", minio.ListObjectsOptions{Prefix: "reports/", Recursive: true}).Return(mocks.Listing(
		minio.ObjectInfo{Key: "reports/b.json", Size: 2},
		minio.ObjectInfo{Key: "reports/"},
		minio.ObjectInfo{Key: "reports/a.json", Size: 1},
	))

	got, err := NewStore(client, testCfg, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.json", got[0].Name)
	assert.Equal(t, "b.json", got[1].Name)
}

func TestStore_ListError(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "merge-reports", mock.Anything).Return(mocks.Listing(
		minio.ObjectInfo{Err: errors.New("access denied")},
	))

	_, err := NewStore(client, testCfg, nil).List(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestStore_Fetch(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "merge-reports", "reports/a.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"run_id":"r"}`)), nil)
	client.On("GetObject", mock.Anything, "merge-reports", "reports/missing.json", mock.Anything).
		Return(nil, errors.New("no such key"))

	store := NewStore(client, testCfg, nil)
	data, err := store.Fetch(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"run_id":"r"}`, string(data))

	_, err = store.Fetch(context.Background(), "missing.json")
	assert.ErrorContains(t, err, "no such key")
}

func TestStore_Prune(t *testing.T) {
	base := time.Unix(1700000000, 0)
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "merge-reports", mock.Anything).Return(mocks.Listing(
		minio.ObjectInfo{Key: "reports/old.json", LastModified: base},
		minio.ObjectInfo{Key: "reports/new.json", LastModified: base.Add(2 * time.Hour)},
		minio.ObjectInfo{Key: "reports/mid.json", LastModified: base.Add(time.Hour)},
	))
	client.On("RemoveObject", mock.Anything, "merge-reports", "reports/old.json", mock.Anything).Return(nil)

	removed, err := NewStore(client, testCfg, nil).Prune(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.json"}, removed)
	client.AssertNumberOfCalls(t, "RemoveObject", 1)

	_, err = NewStore(client, testCfg, nil).Prune(context.Background(), -1)
	assert.Error(t, err)
}
