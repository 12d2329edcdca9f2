package s3

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/blobstore"
)

// fakeDDB is an in-memory stand-in honoring the conditional-put semantics
// the commit store relies on.
type fakeDDB struct {
	items map[string]map[string]types.AttributeValue // version -> item
	stale bool                                       // when set, Query pretends no commits exist
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	if _, exists := f.items[version]; exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[version] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.stale {
		return &dynamodb.QueryOutput{}, nil
	}
	var latest uint64
	var latestItem map[string]types.AttributeValue
	for version, item := range f.items {
		v, _ := strconv.ParseUint(version, 10, 64)
		if v > latest {
			latest = v
			latestItem = item
		}
	}
	if latestItem == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{latestItem}}, nil
}

func TestCommitStore(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh index has no current", func(t *testing.T) {
		cs := NewCommitStore(newFakeDDB(), "commits", "idx-1")
		_, _, err := cs.Current(ctx)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("commit advances the pointer", func(t *testing.T) {
		cs := NewCommitStore(newFakeDDB(), "commits", "idx-1")

		v, err := cs.Commit(ctx, "snap-a")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v)

		v, err = cs.Commit(ctx, "snap-b")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), v)

		name, version, err := cs.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "snap-b", name)
		assert.Equal(t, uint64(2), version)
	})

	t.Run("racing publishers conflict", func(t *testing.T) {
		ddb := newFakeDDB()
		cs := NewCommitStore(ddb, "commits", "idx-1")

		_, err := cs.Commit(ctx, "snap-a")
		require.NoError(t, err)

		// A publisher that read the table before the first commit landed
		// also tries to claim version 1.
		ddb.stale = true
		_, err = cs.Commit(ctx, "snap-b")
		assert.ErrorIs(t, err, ErrConcurrentCommit)
	})
}
