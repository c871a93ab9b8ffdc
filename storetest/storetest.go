// Package storetest provides conformance tests for [todos.Store]
// implementations. Each exported function exercises one behaviour and can be
// called from a store's own test suite:
//
//	func TestCreateAndList(t *testing.T) {
//	    storetest.TestCreateAndList(t, client)
//	}
//
// The tests create items under random owner IDs, so they can run against a
// shared table without interfering with each other.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/slackmgr/todos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Owner returns a random owner ID.
func Owner() string {
	return "owner-" + uuid.NewString()
}

func find(items []todos.Item, itemID string) (todos.Item, bool) {
	for _, item := range items {
		if item.ItemID == itemID {
			return item, true
		}
	}

	return todos.Item{}, false
}

func get(ctx context.Context, t *testing.T, store todos.Store, ownerID, itemID string) (todos.Item, bool) {
	t.Helper()

	items, err := store.List(ctx, ownerID)
	require.NoError(t, err)

	return find(items, itemID)
}

// TestCreateAndList verifies that a created item is listed for its owner with
// a populated ID and creation time, and for no other owner.
func TestCreateAndList(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner, other := Owner(), Owner()

	created, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "Buy milk", DueDate: "2024-02-01"}))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ItemID)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, "Buy milk", created.Name)
	assert.Equal(t, "2024-02-01", created.DueDate)
	assert.False(t, created.Done)
	assert.Empty(t, created.AttachmentReference)

	listed, ok := get(ctx, t, store, owner, created.ItemID)
	require.True(t, ok, "created item must be listed for its owner")
	assert.Equal(t, *created, listed)

	otherItems, err := store.List(ctx, other)
	require.NoError(t, err)
	_, ok = find(otherItems, created.ItemID)
	assert.False(t, ok, "item must not be listed for another owner")
}

// TestListEmpty verifies that an owner without items gets an empty list.
func TestListEmpty(t *testing.T, store todos.Store) {
	t.Helper()

	items, err := store.List(context.Background(), Owner())
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestCreateAssignsUniqueIDs verifies that two creates yield distinct items.
func TestCreateAssignsUniqueIDs(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()

	a, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "a"}))
	require.NoError(t, err)

	b, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "b"}))
	require.NoError(t, err)

	assert.NotEqual(t, a.ItemID, b.ItemID)

	items, err := store.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

// TestUpdate verifies that update replaces exactly name, due date and done
// state and leaves every other field unchanged.
func TestUpdate(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()

	created, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "Buy milk", DueDate: "2024-02-01"}))
	require.NoError(t, err)

	require.NoError(t, store.SetAttachmentReference(ctx, owner, created.ItemID, todos.AttachmentURL("b", created.ItemID)))

	updated, err := store.Update(ctx, owner, created.ItemID, todos.UpdateRequest{Name: "Buy oat milk", DueDate: "2024-03-01", Done: true})
	require.NoError(t, err)

	want := *created
	want.Name = "Buy oat milk"
	want.DueDate = "2024-03-01"
	want.Done = true
	want.AttachmentReference = todos.AttachmentURL("b", created.ItemID)

	assert.Equal(t, want, *updated)

	listed, ok := get(ctx, t, store, owner, created.ItemID)
	require.True(t, ok)
	assert.Equal(t, want, listed)
}

// TestUpdateMissingItem verifies that updating a missing item fails with
// ItemNotFound and does not create a record.
func TestUpdateMissingItem(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()

	_, err := store.Update(ctx, owner, uuid.NewString(), todos.UpdateRequest{Name: "ghost"})
	require.ErrorIs(t, err, todos.ErrItemNotFound)

	items, err := store.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestDeleteIsIdempotent verifies that deleting twice succeeds and the item is
// no longer listed.
func TestDeleteIsIdempotent(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()

	created, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "Buy milk"}))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, owner, created.ItemID))
	require.NoError(t, store.Delete(ctx, owner, created.ItemID))

	_, ok := get(ctx, t, store, owner, created.ItemID)
	assert.False(t, ok)
}

// TestSetAttachmentReference verifies that the reference is recorded and all
// other fields are unchanged.
func TestSetAttachmentReference(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()

	created, err := store.Create(ctx, todos.NewDraft(owner, todos.CreateRequest{Name: "Buy milk", DueDate: "2024-02-01"}))
	require.NoError(t, err)

	url := todos.AttachmentURL("b", created.ItemID)
	require.NoError(t, store.SetAttachmentReference(ctx, owner, created.ItemID, url))

	want := *created
	want.AttachmentReference = url

	listed, ok := get(ctx, t, store, owner, created.ItemID)
	require.True(t, ok)
	assert.Equal(t, want, listed)

	// A later attachment overwrites the reference.
	require.NoError(t, store.SetAttachmentReference(ctx, owner, created.ItemID, url+"-v2"))

	listed, ok = get(ctx, t, store, owner, created.ItemID)
	require.True(t, ok)
	assert.Equal(t, url+"-v2", listed.AttachmentReference)
}

// TestSetAttachmentReferenceMissingItem verifies that attaching to a missing
// item fails with ItemNotFound and does not create a record.
func TestSetAttachmentReferenceMissingItem(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner := Owner()
	itemID := uuid.NewString()

	err := store.SetAttachmentReference(ctx, owner, itemID, todos.AttachmentURL("b", itemID))
	require.ErrorIs(t, err, todos.ErrItemNotFound)

	items, err := store.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestCrossOwnerIsolation verifies that writes issued with another owner's ID
// behave as writes to a missing key and leave the real owner's item intact.
func TestCrossOwnerIsolation(t *testing.T, store todos.Store) {
	t.Helper()

	ctx := context.Background()
	owner1, owner2 := Owner(), Owner()

	created, err := store.Create(ctx, todos.NewDraft(owner1, todos.CreateRequest{Name: "private", DueDate: "2024-02-01"}))
	require.NoError(t, err)

	items, err := store.List(ctx, owner2)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = store.Update(ctx, owner2, created.ItemID, todos.UpdateRequest{Name: "hijacked", Done: true})
	require.ErrorIs(t, err, todos.ErrItemNotFound)

	err = store.SetAttachmentReference(ctx, owner2, created.ItemID, todos.AttachmentURL("evil", created.ItemID))
	require.ErrorIs(t, err, todos.ErrItemNotFound)

	require.NoError(t, store.Delete(ctx, owner2, created.ItemID))

	listed, ok := get(ctx, t, store, owner1, created.ItemID)
	require.True(t, ok, "owner1's item must survive owner2's delete")
	assert.Equal(t, *created, listed)

	items, err = store.List(ctx, owner2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestAll runs every conformance test as a subtest.
func TestAll(t *testing.T, store todos.Store) {
	t.Helper()

	tests := map[string]func(*testing.T, todos.Store){
		"CreateAndList":                     TestCreateAndList,
		"ListEmpty":                         TestListEmpty,
		"CreateAssignsUniqueIDs":            TestCreateAssignsUniqueIDs,
		"Update":                            TestUpdate,
		"UpdateMissingItem":                 TestUpdateMissingItem,
		"DeleteIsIdempotent":                TestDeleteIsIdempotent,
		"SetAttachmentReference":            TestSetAttachmentReference,
		"SetAttachmentReferenceMissingItem": TestSetAttachmentReferenceMissingItem,
		"CrossOwnerIsolation":               TestCrossOwnerIsolation,
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test(t, store)
		})
	}
}
