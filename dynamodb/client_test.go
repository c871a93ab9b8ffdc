package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/slackmgr/todos"
)

// mockAPI is a mock implementation of API for testing.
type mockAPI struct {
	queryFunc          func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	putItemFunc        func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	updateItemFunc     func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	deleteItemFunc     func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	scanFunc           func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	batchWriteItemFunc func(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	describeTableFunc  func(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

func (m *mockAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, params, optFns...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if m.updateItemFunc != nil {
		return m.updateItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.deleteItemFunc != nil {
		return m.deleteItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, params, optFns...)
	}
	return &dynamodb.ScanOutput{}, nil
}

func (m *mockAPI) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if m.batchWriteItemFunc != nil {
		return m.batchWriteItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (m *mockAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if m.describeTableFunc != nil {
		return m.describeTableFunc(ctx, params, optFns...)
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

var fixedTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestClient(mock *mockAPI) *Client {
	cfg := aws.Config{}
	client := New(&cfg, "test-table",
		WithAPI(mock),
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "item-1" }),
	)
	_ = client.Connect()
	return client
}

func itemAttributes(ownerID, itemID, name string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: ownerID},
		SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: itemID},
		NameAttr:     &dynamodbtypes.AttributeValueMemberS{Value: name},
		DueDateAttr:  &dynamodbtypes.AttributeValueMemberS{Value: "2024-02-01"},
		DoneAttr:     &dynamodbtypes.AttributeValueMemberBOOL{Value: false},
		"createdAt":  &dynamodbtypes.AttributeValueMemberS{Value: "2024-01-15T12:00:00.000Z"},
	}
}

func getS(t *testing.T, m map[string]dynamodbtypes.AttributeValue, key string) string {
	t.Helper()
	attr, ok := m[key].(*dynamodbtypes.AttributeValueMemberS)
	if !ok {
		t.Fatalf("expected %s to be a string attribute, got %T", key, m[key])
	}
	return attr.Value
}

// ==================== Connect Tests ====================

func TestConnect_Success(t *testing.T) {
	t.Parallel()
	cfg := aws.Config{}
	client := New(&cfg, "test-table", WithAPI(&mockAPI{}))

	if err := client.Connect(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestConnect_InvalidOptions(t *testing.T) {
	t.Parallel()
	cfg := aws.Config{}
	client := New(&cfg, "test-table", WithAPI(&mockAPI{}), WithClock(nil))

	if err := client.Connect(); err == nil {
		t.Error("expected error for invalid options, got nil")
	}
}

func TestConnect_EmptyTableName(t *testing.T) {
	t.Parallel()
	cfg := aws.Config{}
	client := New(&cfg, "", WithAPI(&mockAPI{}))

	if err := client.Connect(); err == nil {
		t.Error("expected error for empty table name, got nil")
	}
}

// ==================== Init Tests ====================

func validTable() *dynamodbtypes.TableDescription {
	return &dynamodbtypes.TableDescription{
		TableStatus: dynamodbtypes.TableStatusActive,
		KeySchema: []dynamodbtypes.KeySchemaElement{
			{AttributeName: aws.String(PartitionKey), KeyType: dynamodbtypes.KeyTypeHash},
			{AttributeName: aws.String(SortKey), KeyType: dynamodbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dynamodbtypes.AttributeDefinition{
			{AttributeName: aws.String(PartitionKey), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String(SortKey), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
		},
	}
}

func TestInit_SkipValidation(t *testing.T) {
	t.Parallel()
	called := false
	mock := &mockAPI{
		describeTableFunc: func(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			called = true
			return nil, errors.New("should not be called")
		},
	}
	client := newTestClient(mock)

	if err := client.Init(context.Background(), true); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if called {
		t.Error("expected DescribeTable not to be called")
	}
}

func TestInit_ValidTable(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		describeTableFunc: func(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			if aws.ToString(params.TableName) != "test-table" {
				t.Errorf("expected table name 'test-table', got %s", aws.ToString(params.TableName))
			}
			return &dynamodb.DescribeTableOutput{Table: validTable()}, nil
		},
	}
	client := newTestClient(mock)

	if err := client.Init(context.Background(), false); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestInit_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*dynamodbtypes.TableDescription)
		wantErr string
	}{
		{
			name:    "no key schema",
			mutate:  func(d *dynamodbtypes.TableDescription) { d.KeySchema = nil },
			wantErr: "has no key schema",
		},
		{
			name: "wrong partition key",
			mutate: func(d *dynamodbtypes.TableDescription) {
				d.KeySchema[0].AttributeName = aws.String("userId")
			},
			wantErr: "has partition key userId",
		},
		{
			name:    "simple primary key",
			mutate:  func(d *dynamodbtypes.TableDescription) { d.KeySchema = d.KeySchema[:1] },
			wantErr: "simple primary key",
		},
		{
			name: "wrong sort key",
			mutate: func(d *dynamodbtypes.TableDescription) {
				d.KeySchema[1].AttributeName = aws.String("todoId")
			},
			wantErr: "has sort key todoId",
		},
		{
			name: "numeric sort key",
			mutate: func(d *dynamodbtypes.TableDescription) {
				d.AttributeDefinitions[1].AttributeType = dynamodbtypes.ScalarAttributeTypeN
			},
			wantErr: "attribute itemId has type N",
		},
		{
			name: "missing attribute definition",
			mutate: func(d *dynamodbtypes.TableDescription) {
				d.AttributeDefinitions = d.AttributeDefinitions[:1]
			},
			wantErr: "attribute definition for itemId not found",
		},
		{
			name:    "table not active",
			mutate:  func(d *dynamodbtypes.TableDescription) { d.TableStatus = dynamodbtypes.TableStatusCreating },
			wantErr: "is not active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			table := validTable()
			tt.mutate(table)
			mock := &mockAPI{
				describeTableFunc: func(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
					return &dynamodb.DescribeTableOutput{Table: table}, nil
				},
			}
			client := newTestClient(mock)

			err := client.Init(context.Background(), false)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestInit_TableNotFound(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		describeTableFunc: func(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			return nil, &dynamodbtypes.ResourceNotFoundException{Message: aws.String("not found")}
		},
	}
	client := newTestClient(mock)

	err := client.Init(context.Background(), false)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "table test-table does not exist" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

// ==================== List Tests ====================

func TestList_SinglePage(t *testing.T) {
	t.Parallel()
	var capturedInput *dynamodb.QueryInput
	mock := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			capturedInput = params
			return &dynamodb.QueryOutput{
				Items: []map[string]dynamodbtypes.AttributeValue{
					itemAttributes("owner1", "a", "first"),
					itemAttributes("owner1", "b", "second"),
				},
			}, nil
		},
	}
	client := newTestClient(mock)

	items, err := client.List(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ItemID != "a" || items[0].Name != "first" || items[0].OwnerID != "owner1" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].CreatedAt != "2024-01-15T12:00:00.000Z" {
		t.Errorf("unexpected createdAt: %s", items[1].CreatedAt)
	}
	if aws.ToString(capturedInput.KeyConditionExpression) != "#pk = :owner" {
		t.Errorf("unexpected key condition: %s", aws.ToString(capturedInput.KeyConditionExpression))
	}
	if capturedInput.ExpressionAttributeNames["#pk"] != PartitionKey {
		t.Errorf("expected #pk to map to %s", PartitionKey)
	}
	if getS(t, capturedInput.ExpressionAttributeValues, ":owner") != "owner1" {
		t.Error("expected query to be scoped to owner1")
	}
}

func TestList_Pagination(t *testing.T) {
	t.Parallel()
	calls := 0
	mock := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			calls++
			if calls == 1 {
				if params.ExclusiveStartKey != nil {
					t.Error("expected no start key on first page")
				}
				return &dynamodb.QueryOutput{
					Items:            []map[string]dynamodbtypes.AttributeValue{itemAttributes("owner1", "a", "first")},
					LastEvaluatedKey: itemKey("owner1", "a"),
				}, nil
			}
			if params.ExclusiveStartKey == nil {
				t.Error("expected start key on second page")
			}
			return &dynamodb.QueryOutput{
				Items: []map[string]dynamodbtypes.AttributeValue{itemAttributes("owner1", "b", "second")},
			}, nil
		},
	}
	client := newTestClient(mock)

	items, err := client.List(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 query calls, got %d", calls)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestList_Empty(t *testing.T) {
	t.Parallel()
	client := newTestClient(&mockAPI{})

	items, err := client.List(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if items == nil {
		t.Error("expected empty non-nil slice")
	}
	if len(items) != 0 {
		t.Errorf("expected 0 items, got %d", len(items))
	}
}

func TestList_QueryError(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		queryFunc: func(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			return nil, errors.New("query failed")
		},
	}
	client := newTestClient(mock)

	_, err := client.List(context.Background(), "owner1")
	if !errors.Is(err, todos.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable error, got %v", err)
	}
}

// ==================== Create Tests ====================

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	var capturedInput *dynamodb.PutItemInput
	mock := &mockAPI{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			capturedInput = params
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	client := newTestClient(mock)

	draft := todos.NewDraft("owner1", todos.CreateRequest{Name: "Buy milk", DueDate: "2024-02-01"})

	item, err := client.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.ItemID != "item-1" {
		t.Errorf("expected item ID 'item-1', got %s", item.ItemID)
	}
	if item.OwnerID != "owner1" {
		t.Errorf("expected owner 'owner1', got %s", item.OwnerID)
	}
	if item.CreatedAt != "2024-01-15T12:00:00.000Z" {
		t.Errorf("unexpected createdAt: %s", item.CreatedAt)
	}
	if capturedInput == nil {
		t.Fatal("expected PutItem to be called")
	}
	if *capturedInput.TableName != "test-table" {
		t.Errorf("expected table name 'test-table', got %s", *capturedInput.TableName)
	}
	if capturedInput.ConditionExpression != nil {
		t.Error("expected unconditional put")
	}
	if getS(t, capturedInput.Item, PartitionKey) != "owner1" {
		t.Error("expected partition key 'owner1'")
	}
	if getS(t, capturedInput.Item, SortKey) != "item-1" {
		t.Error("expected sort key 'item-1'")
	}
	if getS(t, capturedInput.Item, NameAttr) != "Buy milk" {
		t.Error("expected name 'Buy milk'")
	}
	if _, ok := capturedInput.Item[AttachmentReferenceAttr]; ok {
		t.Error("expected no attachment reference on a new item")
	}
}

func TestCreate_PutItemError(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		putItemFunc: func(_ context.Context, _ *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, errors.New("put failed")
		},
	}
	client := newTestClient(mock)

	_, err := client.Create(context.Background(), todos.NewDraft("owner1", todos.CreateRequest{Name: "x"}))
	if !errors.Is(err, todos.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "put failed") {
		t.Errorf("expected cause in error message, got %s", err.Error())
	}
}

// ==================== Update Tests ====================

func TestUpdate_Success(t *testing.T) {
	t.Parallel()
	var capturedInput *dynamodb.UpdateItemInput
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			capturedInput = params
			attrs := itemAttributes("owner1", "item-1", "Renamed")
			attrs[DoneAttr] = &dynamodbtypes.AttributeValueMemberBOOL{Value: true}
			attrs[AttachmentReferenceAttr] = &dynamodbtypes.AttributeValueMemberS{Value: "https://b.s3.amazonaws.com/item-1"}
			return &dynamodb.UpdateItemOutput{Attributes: attrs}, nil
		},
	}
	client := newTestClient(mock)

	item, err := client.Update(context.Background(), "owner1", "item-1", todos.UpdateRequest{Name: "Renamed", DueDate: "2024-02-01", Done: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.Name != "Renamed" || !item.Done {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.AttachmentReference != "https://b.s3.amazonaws.com/item-1" {
		t.Errorf("expected attachment reference to be preserved, got %s", item.AttachmentReference)
	}
	if aws.ToString(capturedInput.UpdateExpression) != "SET #name = :name, #dueDate = :dueDate, #done = :done" {
		t.Errorf("unexpected update expression: %s", aws.ToString(capturedInput.UpdateExpression))
	}
	if aws.ToString(capturedInput.ConditionExpression) != "attribute_exists(#sk)" {
		t.Errorf("unexpected condition expression: %s", aws.ToString(capturedInput.ConditionExpression))
	}
	if capturedInput.ReturnValues != dynamodbtypes.ReturnValueAllNew {
		t.Errorf("expected ReturnValues ALL_NEW, got %s", capturedInput.ReturnValues)
	}
	if getS(t, capturedInput.Key, PartitionKey) != "owner1" || getS(t, capturedInput.Key, SortKey) != "item-1" {
		t.Error("unexpected key")
	}
	done, ok := capturedInput.ExpressionAttributeValues[":done"].(*dynamodbtypes.AttributeValueMemberBOOL)
	if !ok || !done.Value {
		t.Error("expected :done to be BOOL true")
	}
}

func TestUpdate_ItemNotFound(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &dynamodbtypes.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		},
	}
	client := newTestClient(mock)

	_, err := client.Update(context.Background(), "owner2", "item-1", todos.UpdateRequest{Name: "x"})
	if !errors.Is(err, todos.ErrItemNotFound) {
		t.Errorf("expected item not found error, got %v", err)
	}
}

func TestUpdate_OtherError(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	client := newTestClient(mock)

	_, err := client.Update(context.Background(), "owner1", "item-1", todos.UpdateRequest{Name: "x"})
	if !errors.Is(err, todos.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable error, got %v", err)
	}
}

// ==================== Delete Tests ====================

func TestDelete_Success(t *testing.T) {
	t.Parallel()
	var capturedInput *dynamodb.DeleteItemInput
	mock := &mockAPI{
		deleteItemFunc: func(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			capturedInput = params
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}
	client := newTestClient(mock)

	if err := client.Delete(context.Background(), "owner1", "item-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if capturedInput.ConditionExpression != nil {
		t.Error("expected unconditional delete")
	}
	if getS(t, capturedInput.Key, PartitionKey) != "owner1" || getS(t, capturedInput.Key, SortKey) != "item-1" {
		t.Error("unexpected key")
	}
}

func TestDelete_Error(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		deleteItemFunc: func(_ context.Context, _ *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			return nil, errors.New("delete failed")
		},
	}
	client := newTestClient(mock)

	err := client.Delete(context.Background(), "owner1", "item-1")
	if !errors.Is(err, todos.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable error, got %v", err)
	}
}

// ==================== SetAttachmentReference Tests ====================

func TestSetAttachmentReference_Success(t *testing.T) {
	t.Parallel()
	var capturedInput *dynamodb.UpdateItemInput
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			capturedInput = params
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}
	client := newTestClient(mock)

	err := client.SetAttachmentReference(context.Background(), "owner1", "item-1", "https://b.s3.amazonaws.com/item-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if aws.ToString(capturedInput.UpdateExpression) != "SET #ref = :ref" {
		t.Errorf("unexpected update expression: %s", aws.ToString(capturedInput.UpdateExpression))
	}
	if aws.ToString(capturedInput.ConditionExpression) != "attribute_exists(#sk)" {
		t.Errorf("unexpected condition expression: %s", aws.ToString(capturedInput.ConditionExpression))
	}
	if capturedInput.ExpressionAttributeNames["#ref"] != AttachmentReferenceAttr {
		t.Errorf("expected #ref to map to %s", AttachmentReferenceAttr)
	}
	if getS(t, capturedInput.ExpressionAttributeValues, ":ref") != "https://b.s3.amazonaws.com/item-1" {
		t.Error("unexpected attachment reference value")
	}
}

func TestSetAttachmentReference_ItemNotFound(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &dynamodbtypes.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		},
	}
	client := newTestClient(mock)

	err := client.SetAttachmentReference(context.Background(), "owner1", "missing", "https://b.s3.amazonaws.com/missing")
	if !errors.Is(err, todos.ErrItemNotFound) {
		t.Errorf("expected item not found error, got %v", err)
	}
}

func TestSetAttachmentReference_OtherError(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		updateItemFunc: func(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, errors.New("network down")
		},
	}
	client := newTestClient(mock)

	err := client.SetAttachmentReference(context.Background(), "owner1", "item-1", "https://b.s3.amazonaws.com/item-1")
	if !errors.Is(err, todos.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable error, got %v", err)
	}
}

// ==================== DropAllData Tests ====================

func TestDropAllData_DeletesScannedItems(t *testing.T) {
	t.Parallel()
	var deleted int
	mock := &mockAPI{
		scanFunc: func(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			items := make([]map[string]dynamodbtypes.AttributeValue, 0, 30)
			for i := range 30 {
				items = append(items, itemKey("owner1", string(rune('a'+i))))
			}
			return &dynamodb.ScanOutput{Items: items}, nil
		},
		batchWriteItemFunc: func(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			deleted += len(params.RequestItems["test-table"])
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}
	client := newTestClient(mock)

	if err := client.DropAllData(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != 30 {
		t.Errorf("expected 30 deletions, got %d", deleted)
	}
}

func TestDropAllData_RetriesUnprocessedItems(t *testing.T) {
	t.Parallel()
	calls := 0
	mock := &mockAPI{
		scanFunc: func(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			return &dynamodb.ScanOutput{Items: []map[string]dynamodbtypes.AttributeValue{itemKey("owner1", "a")}}, nil
		},
		batchWriteItemFunc: func(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			calls++
			if calls == 1 {
				return &dynamodb.BatchWriteItemOutput{UnprocessedItems: params.RequestItems}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}
	client := newTestClient(mock)

	if err := client.DropAllData(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 batch calls, got %d", calls)
	}
}

func TestDropAllData_ScanError(t *testing.T) {
	t.Parallel()
	mock := &mockAPI{
		scanFunc: func(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			return nil, errors.New("scan failed")
		},
	}
	client := newTestClient(mock)

	if err := client.DropAllData(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
