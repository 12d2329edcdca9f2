package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/annidx/blobstore"
)

// ErrConcurrentCommit is returned when another publisher committed the same
// version first.
var ErrConcurrentCommit = errors.New("s3: concurrent snapshot commit detected")

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore tracks which snapshot is current for an index. Snapshot
// objects live in S3; the "current" pointer lives in DynamoDB, whose
// conditional writes give the compare-and-swap that S3 lacks, so multiple
// publishers can race safely.
//
// Table schema: partition key index_id (S), sort key version (N).
type CommitStore struct {
	ddb     DDBClient
	table   string
	indexID string
}

// NewCommitStore creates a commit pointer store for one index.
func NewCommitStore(ddb DDBClient, table, indexID string) *CommitStore {
	return &CommitStore{ddb: ddb, table: table, indexID: indexID}
}

// Current returns the committed snapshot name and its version. A fresh index
// with no commits returns blobstore.ErrNotFound.
func (c *CommitStore) Current(ctx context.Context) (string, uint64, error) {
	resp, err := c.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("index_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: c.indexID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", 0, fmt.Errorf("s3: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", 0, blobstore.ErrNotFound
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return "", 0, errors.New("s3: malformed version attribute")
	}
	nameAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
	if !ok {
		return "", 0, errors.New("s3: malformed snapshot attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("s3: parse version: %w", err)
	}
	return nameAttr.Value, version, nil
}

// Commit publishes snapshot as the next version. The conditional put fails
// with ErrConcurrentCommit if another publisher claimed that version first.
func (c *CommitStore) Commit(ctx context.Context, snapshot string) (uint64, error) {
	_, current, err := c.Current(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return 0, err
	}
	next := current + 1

	_, err = c.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"index_id": &types.AttributeValueMemberS{Value: c.indexID},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: snapshot},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("s3: commit version %d: %w", next, err)
	}
	return next, nil
}
