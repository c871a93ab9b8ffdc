package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/slackmgr/todos"
)

const (
	// PartitionKey is the DynamoDB partition key attribute name. It holds the
	// owner ID of the item.
	PartitionKey = "ownerId"

	// SortKey is the DynamoDB sort key attribute name. It holds the item ID.
	SortKey = "itemId"

	// NameAttr is the attribute name of the item name. "name" is a DynamoDB
	// reserved word and must always be referenced through an expression
	// attribute name.
	NameAttr = "name"

	// DueDateAttr is the attribute name of the item due date.
	DueDateAttr = "dueDate"

	// DoneAttr is the attribute name of the item done flag.
	DoneAttr = "done"

	// AttachmentReferenceAttr is the attribute name of the public attachment URL.
	AttachmentReferenceAttr = "attachmentReference"

	// maxBackoff is the maximum backoff duration for retry loops.
	maxBackoff = 2 * time.Second
)

// API is the subset of the DynamoDB client used by [Client]. It is satisfied
// by [*dynamodb.Client].
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var (
	_ API         = (*dynamodb.Client)(nil)
	_ todos.Store = (*Client)(nil)
)

// record is the DynamoDB representation of a [todos.Item].
type record struct {
	OwnerID             string `dynamodbav:"ownerId"`
	ItemID              string `dynamodbav:"itemId"`
	Name                string `dynamodbav:"name"`
	DueDate             string `dynamodbav:"dueDate"`
	Done                bool   `dynamodbav:"done"`
	CreatedAt           string `dynamodbav:"createdAt"`
	AttachmentReference string `dynamodbav:"attachmentReference,omitempty"`
}

func (r *record) item() todos.Item {
	return todos.Item{
		OwnerID:             r.OwnerID,
		ItemID:              r.ItemID,
		Name:                r.Name,
		DueDate:             r.DueDate,
		Done:                r.Done,
		CreatedAt:           r.CreatedAt,
		AttachmentReference: r.AttachmentReference,
	}
}

// Client is a DynamoDB-backed implementation of the [todos.Store] interface.
// Items live in a single table keyed by owner ID (partition key) and item ID
// (sort key).
//
// Use [New] to create a Client, [Client.Connect] to initialize the underlying
// DynamoDB connection, and [Client.Init] to validate the table schema.
type Client struct {
	client    API
	tableName string
	awsCfg    *aws.Config
	opts      *Options
	logger    *slog.Logger
}

// New creates a new Client configured with the given AWS config, table name,
// and optional options. Call [Client.Connect] on the returned client before use.
func New(awsCfg *aws.Config, tableName string, opts ...Option) *Client {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Client{
		awsCfg:    awsCfg,
		tableName: tableName,
		opts:      options,
	}
}

// Connect initializes the DynamoDB client from the AWS config provided to [New].
// It must be called before any other Client methods, and must complete before
// the Client is used concurrently.
func (c *Client) Connect() error {
	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid DynamoDB options: %w", err)
	}

	if c.tableName == "" {
		return errors.New("table name cannot be empty")
	}

	// Use injected DynamoDB API if provided (useful for testing).
	if c.opts.dynamoDBAPI != nil {
		c.client = c.opts.dynamoDBAPI
	} else {
		if c.awsCfg == nil {
			return errors.New("AWS config cannot be nil")
		}
		c.client = dynamodb.NewFromConfig(*c.awsCfg)
	}

	c.logger = c.opts.logger.With("plugin", "dynamodb", "table_name", c.tableName)

	return nil
}

// Init validates the DynamoDB table schema. It checks that the table exists,
// is active, and has a composite primary key made of the string attributes
// ownerId (partition key) and itemId (sort key).
//
// Pass skipSchemaValidation true to skip all checks and return immediately,
// which is useful when schema validation is managed separately.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if skipSchemaValidation {
		return nil
	}

	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	}

	response, err := c.client.DescribeTable(ctx, input)
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", c.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if len(response.Table.KeySchema) < 1 {
		return fmt.Errorf("table %s has no key schema", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[0].AttributeName) != PartitionKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[0].AttributeName), PartitionKey)
	}

	if len(response.Table.KeySchema) < 2 {
		return fmt.Errorf("table %s has a simple primary key, expected composite", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[1].AttributeName) != SortKey {
		return fmt.Errorf("table %s has sort key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[1].AttributeName), SortKey)
	}

	for _, key := range []string{PartitionKey, SortKey} {
		if err := verifyAttributeType(response.Table, key, dynamodbtypes.ScalarAttributeTypeS); err != nil {
			return err
		}
	}

	if response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", c.tableName, response.Table.TableStatus)
	}

	return nil
}

// DropAllData deletes every item from the DynamoDB table. It scans the table
// in pages and removes each page using BatchWriteItem with exponential backoff
// for unprocessed items.
//
// This method is intended for use in tests only. Do not call it in production.
func (c *Client) DropAllData(ctx context.Context) error {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(c.tableName),
		ProjectionExpression: aws.String("#pk, #sk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": PartitionKey,
			"#sk": SortKey,
		},
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
		}

		// Process items in batches of 25 (DynamoDB BatchWriteItem limit).
		for i := 0; i < len(output.Items); i += 25 {
			end := min(i+25, len(output.Items))
			batch := output.Items[i:end]

			requestItems := make([]dynamodbtypes.WriteRequest, 0, len(batch))

			for _, item := range batch {
				requestItems = append(requestItems, dynamodbtypes.WriteRequest{
					DeleteRequest: &dynamodbtypes.DeleteRequest{
						Key: map[string]dynamodbtypes.AttributeValue{
							PartitionKey: item[PartitionKey],
							SortKey:      item[SortKey],
						},
					},
				})
			}

			if err := c.batchWrite(ctx, requestItems); err != nil {
				return err
			}
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return nil
}

// List returns all items of the owner by querying the owner's partition.
// Every result page is read. Returns an empty slice if the owner has no items.
func (c *Client) List(ctx context.Context, ownerID string) ([]todos.Item, error) {
	c.logger.Debug("Getting all items", "owner_id", ownerID)

	queryInput := &dynamodb.QueryInput{
		TableName:              &c.tableName,
		KeyConditionExpression: aws.String("#pk = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#pk": PartitionKey,
		},
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":owner": &dynamodbtypes.AttributeValueMemberS{Value: ownerID},
		},
	}

	items := []todos.Item{}

	for {
		output, err := c.client.Query(ctx, queryInput)
		if err != nil {
			c.logger.Error("Failed to fetch items", "owner_id", ownerID, "error", err)
			return nil, todos.StoreUnavailable("list items", fmt.Errorf("failed to query DynamoDB table %s: %w", c.tableName, err))
		}

		var records []record

		if err := attributevalue.UnmarshalListOfMaps(output.Items, &records); err != nil {
			return nil, todos.StoreUnavailable("list items", fmt.Errorf("failed to unmarshal items from DynamoDB table %s: %w", c.tableName, err))
		}

		for i := range records {
			items = append(items, records[i].item())
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		queryInput.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return items, nil
}

// Create assigns a new item ID and creation time to the draft and writes it
// with an unconditional PutItem.
func (c *Client) Create(ctx context.Context, draft todos.Draft) (*todos.Item, error) {
	item := draft.Item(c.opts.idGenerator(), c.opts.clock())

	c.logger.Debug("Creating item", "owner_id", item.OwnerID, "item_id", item.ItemID)

	attributes, err := attributevalue.MarshalMap(record{
		OwnerID:   item.OwnerID,
		ItemID:    item.ItemID,
		Name:      item.Name,
		DueDate:   item.DueDate,
		Done:      item.Done,
		CreatedAt: item.CreatedAt,
	})
	if err != nil {
		return nil, todos.StoreUnavailable("create item", fmt.Errorf("failed to marshal item: %w", err))
	}

	input := &dynamodb.PutItemInput{
		TableName: &c.tableName,
		Item:      attributes,
	}

	if _, err = c.client.PutItem(ctx, input); err != nil {
		c.logger.Error("Failed to create item", "owner_id", item.OwnerID, "item_id", item.ItemID, "error", err)
		return nil, todos.StoreUnavailable("create item", fmt.Errorf("failed to write item to DynamoDB table %s: %w", c.tableName, err))
	}

	return item, nil
}

// Update sets name, due date and done state of an existing item with a single
// UpdateItem call and returns all attributes of the updated item. The update
// is conditional on the item existing; a missing item yields an error of kind
// [todos.KindItemNotFound] and nothing is written.
func (c *Client) Update(ctx context.Context, ownerID, itemID string, req todos.UpdateRequest) (*todos.Item, error) {
	c.logger.Debug("Updating item", "owner_id", ownerID, "item_id", itemID)

	input := &dynamodb.UpdateItemInput{
		TableName:           &c.tableName,
		Key:                 itemKey(ownerID, itemID),
		ConditionExpression: aws.String("attribute_exists(#sk)"),
		UpdateExpression:    aws.String("SET #name = :name, #dueDate = :dueDate, #done = :done"),
		ExpressionAttributeNames: map[string]string{
			"#sk":      SortKey,
			"#name":    NameAttr,
			"#dueDate": DueDateAttr,
			"#done":    DoneAttr,
		},
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":name":    &dynamodbtypes.AttributeValueMemberS{Value: req.Name},
			":dueDate": &dynamodbtypes.AttributeValueMemberS{Value: req.DueDate},
			":done":    &dynamodbtypes.AttributeValueMemberBOOL{Value: req.Done},
		},
		ReturnValues: dynamodbtypes.ReturnValueAllNew,
	}

	output, err := c.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, todos.ItemNotFound("update item", ownerID, itemID)
		}
		c.logger.Error("Failed to update item", "owner_id", ownerID, "item_id", itemID, "error", err)
		return nil, todos.StoreUnavailable("update item", fmt.Errorf("failed to update item in DynamoDB table %s: %w", c.tableName, err))
	}

	var r record

	if err := attributevalue.UnmarshalMap(output.Attributes, &r); err != nil {
		return nil, todos.StoreUnavailable("update item", fmt.Errorf("failed to unmarshal updated item: %w", err))
	}

	item := r.item()

	return &item, nil
}

// Delete removes an item with an unconditional DeleteItem. It is a no-op if the
// item does not exist.
func (c *Client) Delete(ctx context.Context, ownerID, itemID string) error {
	c.logger.Debug("Deleting item", "owner_id", ownerID, "item_id", itemID)

	deleteInput := &dynamodb.DeleteItemInput{
		TableName: &c.tableName,
		Key:       itemKey(ownerID, itemID),
	}

	if _, err := c.client.DeleteItem(ctx, deleteInput); err != nil {
		c.logger.Error("Failed to delete item", "owner_id", ownerID, "item_id", itemID, "error", err)
		return todos.StoreUnavailable("delete item", fmt.Errorf("failed to delete item from DynamoDB table %s: %w", c.tableName, err))
	}

	return nil
}

// SetAttachmentReference sets the attachment reference of an existing item.
// The write is conditional on the item existing, so a missing item is never
// created; an error of kind [todos.KindItemNotFound] is returned instead.
func (c *Client) SetAttachmentReference(ctx context.Context, ownerID, itemID, url string) error {
	c.logger.Debug("Updating attachment reference", "owner_id", ownerID, "item_id", itemID)

	input := &dynamodb.UpdateItemInput{
		TableName:           &c.tableName,
		Key:                 itemKey(ownerID, itemID),
		ConditionExpression: aws.String("attribute_exists(#sk)"),
		UpdateExpression:    aws.String("SET #ref = :ref"),
		ExpressionAttributeNames: map[string]string{
			"#sk":  SortKey,
			"#ref": AttachmentReferenceAttr,
		},
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":ref": &dynamodbtypes.AttributeValueMemberS{Value: url},
		},
	}

	if _, err := c.client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return todos.ItemNotFound("set attachment reference", ownerID, itemID)
		}
		c.logger.Error("Failed to update attachment reference", "owner_id", ownerID, "item_id", itemID, "error", err)
		return todos.StoreUnavailable("set attachment reference", fmt.Errorf("failed to update item in DynamoDB table %s: %w", c.tableName, err))
	}

	return nil
}

func (c *Client) batchWrite(ctx context.Context, requestItems []dynamodbtypes.WriteRequest) error {
	batchInput := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]dynamodbtypes.WriteRequest{
			c.tableName: requestItems,
		},
	}

	// Retry with exponential backoff for unprocessed items.
	const maxRetries = 5
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		batchResult, err := c.client.BatchWriteItem(ctx, batchInput)
		if err != nil {
			return fmt.Errorf("failed to batch delete items from DynamoDB table %s: %w", c.tableName, err)
		}

		if len(batchResult.UnprocessedItems) == 0 {
			return nil
		}

		if attempt == maxRetries {
			return fmt.Errorf("%d unprocessed items after %d retries in DropAllData",
				len(batchResult.UnprocessedItems[c.tableName]), maxRetries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
		batchInput.RequestItems = batchResult.UnprocessedItems
	}

	return nil
}

func itemKey(ownerID, itemID string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: ownerID},
		SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: itemID},
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *dynamodbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func verifyAttributeType(table *dynamodbtypes.TableDescription, name string, expected dynamodbtypes.ScalarAttributeType) error {
	for _, def := range table.AttributeDefinitions {
		if aws.ToString(def.AttributeName) == name {
			if def.AttributeType != expected {
				return fmt.Errorf("attribute %s has type %s, expected %s", name, def.AttributeType, expected)
			}
			return nil
		}
	}

	return fmt.Errorf("attribute definition for %s not found", name)
}
