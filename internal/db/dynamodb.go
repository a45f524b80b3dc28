package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/utils"
)

const (
	DefaultResultsTable = "SentimentResults"

	maxBatchSize   = 25
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	resultTTL      = 24 * time.Hour
)

// DynamoDBAPI is the subset of the DynamoDB client used by ResultStore.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ResultStore archives analyzed rows, one item per row, keyed by
// (batch_id, row). It implements analysis.ResultSink.
type ResultStore struct {
	client  DynamoDBAPI
	table   string
	backoff time.Duration
}

func NewResultStore(client DynamoDBAPI, table string) *ResultStore {
	if table == "" {
		table = DefaultResultsTable
	}
	return &ResultStore{client: client, table: table, backoff: initialBackoff}
}

func (s *ResultStore) Name() string { return "dynamodb" }

// Ping confirms the results table exists and is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("[DynamoDB] describe table %s: %w", s.table, err)
	}
	return nil
}

func (s *ResultStore) Store(ctx context.Context, batch models.ArchivedBatch) error {
	writeRequests := make([]types.WriteRequest, 0, len(batch.Results))
	for i, result := range batch.Results {
		item, err := ResultToDynamoDBItem(batch, i, result)
		if err != nil {
			return err
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for _, chunk := range utils.Chunk(writeRequests, maxBatchSize) {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}
		if err := s.writeChunk(ctx, chunk); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored sentiment results",
		slog.String("batch_id", batch.BatchID),
		slog.Int("rows", len(batch.Results)))
	return nil
}

func (s *ResultStore) writeChunk(ctx context.Context, chunk []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: chunk},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write sentiment results: %w", err)
	}

	retryCount := 0
	backoff := s.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < maxRetries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed sentiment items...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d sentiment items not written after %d retries", remaining, maxRetries)
	}
	return nil
}

// ResultToDynamoDBItem maps one analyzed row to its table item.
func ResultToDynamoDBItem(batch models.ArchivedBatch, row int, result models.SentimentResult) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(result)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] failed to marshal result row %d: %w", row, err)
	}

	item["batch_id"] = &types.AttributeValueMemberS{Value: batch.BatchID}
	item["row"] = &types.AttributeValueMemberN{Value: strconv.Itoa(row)}
	item["username"] = &types.AttributeValueMemberS{Value: batch.Username}
	item["source"] = &types.AttributeValueMemberS{Value: string(batch.Source)}
	item["created_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(batch.CreatedAt.Unix(), 10)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(batch.CreatedAt.Add(resultTTL).Unix(), 10)}

	return item, nil
}
