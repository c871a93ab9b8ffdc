// Package dynamodb provides a DynamoDB-backed implementation of the
// [github.com/slackmgr/todos.Store] interface.
//
// # Overview
//
// Items are stored in a single table with a composite primary key:
//
//   - Partition key: ownerId (string)
//   - Sort key:      itemId (string)
//
// Every operation addresses one partition, so items of one owner are never
// visible to another. Writes after creation are field-level UpdateItem calls
// rather than full-item overwrites. Updates and attachment references are
// conditional on the item existing (attribute_exists(itemId)); a failed
// condition is reported as [github.com/slackmgr/todos.ErrItemNotFound] and
// every other failure as [github.com/slackmgr/todos.ErrStoreUnavailable].
//
// # Getting Started
//
// Create a [Client] with [New], supplying an AWS config, the DynamoDB table
// name, and any [Option] values you need:
//
//	client := dynamodb.New(&awsCfg, "todos", dynamodb.WithLogger(logger))
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	if err := client.Init(ctx, false); err != nil {
//	    return err
//	}
//
// By default, [Client.Connect] creates an AWS SDK v2 DynamoDB client from the
// supplied [aws.Config]. Supply [WithAPI] to inject a custom or mock
// implementation.
//
// # Concurrency
//
// [Client] is safe for concurrent use by multiple goroutines once
// [Client.Connect] has returned.
package dynamodb
