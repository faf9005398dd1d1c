package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrVersionConflict is returned when a concurrent publisher committed the
// same snapshot version first.
var ErrVersionConflict = errors.New("s3: snapshot version already committed")

// DDBClient is the subset of the DynamoDB API the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Catalog tracks the latest snapshot version per library in DynamoDB.
// S3 writes are not atomic across objects, so publishers upload the
// snapshot blob first and then commit its name here with a conditional
// write; readers resolve the library name through Latest before opening
// the blob.
//
// Table schema: partition key `library` (S), sort key `version` (N).
type Catalog struct {
	client    DDBClient
	tableName string
}

// NewCatalog creates a catalog on the given table.
func NewCatalog(client DDBClient, tableName string) *Catalog {
	return &Catalog{client: client, tableName: tableName}
}

// Latest returns the newest committed version and blob name for a library.
// A library with no commits returns version 0 and an empty name.
func (c *Catalog) Latest(ctx context.Context, library string) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("library = :lib"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":lib": &ddbtypes.AttributeValueMemberS{Value: library},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query catalog: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}
	item := resp.Items[0]
	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: catalog item has no numeric version")
	}
	blobAttr, ok := item["blob"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: catalog item has no blob name")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse catalog version: %w", err)
	}
	return version, blobAttr.Value, nil
}

// Commit publishes blobName as the next version of library. The write is
// conditional on the version not existing, so two racing publishers
// cannot both succeed.
func (c *Catalog) Commit(ctx context.Context, library, blobName string) (uint64, error) {
	current, _, err := c.Latest(ctx, library)
	if err != nil {
		return 0, err
	}
	next := current + 1
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"library": &ddbtypes.AttributeValueMemberS{Value: library},
			"version": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"blob":    &ddbtypes.AttributeValueMemberS{Value: blobName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("s3: commit catalog version: %w", err)
	}
	return next, nil
}

// Forget removes one committed version, for pruning old snapshots.
func (c *Catalog) Forget(ctx context.Context, library string, version uint64) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"library": &ddbtypes.AttributeValueMemberS{Value: library},
			"version": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
	})
	return err
}
