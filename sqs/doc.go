// Package sqs publishes to-do item lifecycle events to an AWS SQS FIFO queue.
// [Publisher] implements the [github.com/slackmgr/todos.Publisher] interface.
//
// Each [github.com/slackmgr/todos.Event] becomes one JSON message. The owner
// ID is the message group, so a consumer sees the events of one owner in the
// order they were committed. The deduplication ID is a SHA-256 hash of the
// event ID, type, owner ID and item ID; SQS drops a repeated publish of the
// same event within its five-minute deduplication window.
//
// Create a publisher with [New] and initialise it with [Publisher.Init]:
//
//	publisher, err := sqs.New(&awsCfg, "todo-events.fifo", logger,
//	    sqs.WithSqsAPIMaxRetryAttempts(3),
//	).Init(ctx)
//
// Then hand it to the service:
//
//	svc, err := todos.NewService(store, issuer, bucket, todos.WithPublisher(publisher))
//
// # Retries
//
// SQS API calls are retried by the AWS SDK retryer. The number of attempts
// and the maximum backoff between them are set with
// [WithSqsAPIMaxRetryAttempts] and [WithSqsAPIMaxRetryBackoffDelay].
package sqs
