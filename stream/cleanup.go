// Package stream provides DynamoDB Streams handlers that run cleanup
// callbacks for keys removed from a dynamo engine table.
//
// Keys leave the table without passing through a Hash when their TTL lapses
// or when another writer deletes them. Point the table's stream (view type
// OLD_IMAGE or NEW_AND_OLD_IMAGES) at HandleRemovals to give those keys the
// same cleanup a Hash.Delete would.
//
// Hash.Delete already runs the cleanup callback itself, and its DeleteItem
// shows up on the stream like any other removal. A Handler therefore only
// cleans up keys removed by DynamoDB's TTL process. Use WithAllRemovals when
// other writers delete keys directly and no Hash callback is configured.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/judy/engine/dynamo"
	"github.com/jacentio/judy/internal/shard"
)

// Handler processes DynamoDB stream events for removed keys.
type Handler struct {
	registry    *Registry
	logger      *slog.Logger
	allRemovals bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllRemovals makes the Handler clean up every removed key, not only
// expired ones.
func WithAllRemovals() Option {
	return func(h *Handler) {
		h.allRemovals = true
	}
}

// NewHandler creates a new stream handler.
func NewHandler(r *Registry, logger *slog.Logger, opts ...Option) *Handler {
	if r == nil {
		r = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		registry: r,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleRemovals processes DynamoDB stream events and runs the registered
// cleanup for every removed key. This function is designed to be used as an
// AWS Lambda handler.
func (h *Handler) HandleRemovals(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.processRecord(record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	image := record.Change.OldImage
	if len(image) == 0 {
		h.logger.Warn("remove record carries no old image",
			"eventID", record.EventID,
		)
		return nil
	}

	pk := getStringAttr(image, dynamo.AttrPK)
	key := getStringAttr(image, dynamo.AttrSK)
	namespace := shard.Namespace(pk)

	expired := isExpiry(record)
	if !expired && !h.allRemovals {
		h.logger.Debug("skipping explicit delete",
			"namespace", namespace,
			"key", key,
		)
		return nil
	}

	cleanup, ok := h.registry.CleanupFor(namespace)
	if !ok {
		h.logger.Debug("skipping unregistered namespace",
			"namespace", namespace,
			"key", key,
		)
		return nil
	}

	var value any
	if raw, ok := image[dynamo.AttrValue]; ok {
		if err := attributevalue.Unmarshal(ConvertAttribute(raw), &value); err != nil {
			return fmt.Errorf("decode value of %q: %w", key, err)
		}
	}

	h.logger.Info("cleaning up removed key",
		"namespace", namespace,
		"key", key,
		"expired", expired,
	)
	cleanup(key, value)
	return nil
}

// isExpiry reports whether DynamoDB's TTL process removed the item.
func isExpiry(record events.DynamoDBEventRecord) bool {
	id := record.UserIdentity
	return id != nil && id.Type == "Service" && id.PrincipalID == "dynamodb.amazonaws.com"
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertImage converts a DynamoDB stream image to SDK attribute values.
// Use this when you need to hand stream data to attributevalue.UnmarshalMap.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		if av := ConvertAttribute(v); av != nil {
			result[k] = av
		}
	}
	return result
}

// ConvertAttribute converts one stream attribute value, recursing into
// lists and maps. It returns nil for values of unknown type.
func ConvertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for _, item := range list {
			if av := ConvertAttribute(item); av != nil {
				out = append(out, av)
			}
		}
		return &types.AttributeValueMemberL{Value: out}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertImage(v.Map())}
	}
	return nil
}
