package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/domain/booking"
)

// DynamoArchive keeps the full lifecycle history of every booking in
// DynamoDB, one item per event, versioned per booking.
type DynamoArchive struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoBookingEvent represents the DynamoDB item structure
type dynamoBookingEvent struct {
	BookingID string `dynamodbav:"booking_id"`
	Version   int    `dynamodbav:"version"`
	ID        string `dynamodbav:"id"`
	EventType string `dynamodbav:"event_type"`
	Data      string `dynamodbav:"data"`
	CreatedAt string `dynamodbav:"created_at"`
}

func NewDynamoArchive(client *dynamodb.Client, tableName string) *DynamoArchive {
	return &DynamoArchive{client: client, tableName: tableName}
}

// Append archives one lifecycle event. A conditional write guards the
// (booking_id, version) key so a concurrent archiver cannot overwrite
// history.
func (a *DynamoArchive) Append(ctx context.Context, env booking.Envelope) error {
	version, err := a.getNextVersion(ctx, env.BookingID)
	if err != nil {
		return fmt.Errorf("failed to get next version: %w", err)
	}

	item := dynamoBookingEvent{
		BookingID: env.BookingID,
		Version:   version,
		ID:        uuid.New().String(),
		EventType: env.EventType,
		Data:      string(env.Data),
		CreatedAt: env.Timestamp.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(booking_id) AND attribute_not_exists(version)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put event: %w", err)
	}

	return nil
}

// History returns the archived events of a booking in version order.
func (a *DynamoArchive) History(ctx context.Context, bookingID string) ([]booking.Envelope, error) {
	result, err := a.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("booking_id = :bid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: bookingID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	envelopes := make([]booking.Envelope, 0, len(result.Items))
	for _, item := range result.Items {
		var de dynamoBookingEvent
		if err := attributevalue.UnmarshalMap(item, &de); err != nil {
			continue
		}
		timestamp, _ := time.Parse(time.RFC3339Nano, de.CreatedAt)
		envelopes = append(envelopes, booking.Envelope{
			EventType: de.EventType,
			BookingID: de.BookingID,
			Data:      json.RawMessage(de.Data),
			Timestamp: timestamp,
		})
	}
	return envelopes, nil
}

func (a *DynamoArchive) getNextVersion(ctx context.Context, bookingID string) (int, error) {
	result, err := a.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("booking_id = :bid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: bookingID},
		},
		ScanIndexForward:     aws.Bool(false),
		Limit:                aws.Int32(1),
		ProjectionExpression: aws.String("version"),
	})
	if err != nil {
		return 0, err
	}

	if len(result.Items) == 0 {
		return 1, nil
	}

	var item struct {
		Version int `dynamodbav:"version"`
	}
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return 0, err
	}
	return item.Version + 1, nil
}
