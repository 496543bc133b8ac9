package blobstore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	data := []byte("envelope bytes")

	blobRef, err := store.Put(context.Background(), data)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.NotEmpty(t, blobRef)

	// 内容寻址：同样的内容得到同样的 ID
	blobRef2, err := store.Put(context.Background(), data)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, blobRef, blobRef2)

	got, err := store.Get(context.Background(), blobRef)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, data, got)

	exists, err := store.Exists(context.Background(), blobRef)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.True(t, exists)

	// 不存在的 blob
	_, err = store.Get(context.Background(), "no-such-blob")
	assert.Equal(t, errorcode.ErrorBlobNotFound, errors.Cause(err))

	exists, err = store.Exists(context.Background(), "no-such-blob")
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, exists)
}
