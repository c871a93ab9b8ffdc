package sqs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/slackmgr/todos"
)

// sqsClient is the subset of the SQS API used by [Publisher].
type sqsClient interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var (
	_ sqsClient       = (*sqs.Client)(nil)
	_ todos.Publisher = (*Publisher)(nil)
)

// Publisher sends item lifecycle events to a FIFO SQS queue.
//
// Create a Publisher with [New], then call [Publisher.Init] once before any
// other method. Init is not thread-safe; all other methods are safe for
// concurrent use after Init returns.
type Publisher struct {
	client      sqsClient
	queueName   string
	queueURL    string
	awsCfg      *aws.Config
	opts        *Options
	logger      *slog.Logger
	initialized bool
}

// New creates a Publisher for the named SQS FIFO queue. The queue name must
// end with ".fifo"; this constraint is enforced by [Publisher.Init].
//
// The logger is automatically enriched with "plugin" and "queue_name" fields.
func New(awsCfg *aws.Config, queueName string, logger *slog.Logger, opts ...Option) *Publisher {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Publisher{
		awsCfg:    awsCfg,
		queueName: queueName,
		opts:      options,
		logger:    logger.With("plugin", "sqs", "queue_name", queueName),
	}
}

// Init validates options and resolves the queue URL via GetQueueUrl. It
// returns the receiver so that initialization can be chained with [New]:
//
//	publisher, err := sqs.New(&awsCfg, "todo-events.fifo", logger).Init(ctx)
//
// Init is idempotent; subsequent calls on an initialized Publisher are no-ops.
func (p *Publisher) Init(ctx context.Context) (*Publisher, error) {
	if p.initialized {
		return p, nil
	}

	if !strings.HasSuffix(p.queueName, ".fifo") {
		return nil, errors.New("the SQS queue must be a FIFO queue (the name must end with .fifo)")
	}

	if err := p.opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid SQS options: %w", err)
	}

	// Use injected client if provided (for testing), otherwise create real client
	if p.opts.sqsClient != nil {
		p.client = p.opts.sqsClient
	} else {
		if p.awsCfg == nil {
			return nil, errors.New("AWS config cannot be nil")
		}

		p.client = sqs.NewFromConfig(*p.awsCfg, func(o *sqs.Options) {
			o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, p.opts.sqsAPIMaxRetryBackoffDelay)
			o.Retryer = retry.AddWithMaxAttempts(o.Retryer, p.opts.sqsAPIMaxRetryAttempts)
		})
	}

	resp, err := p.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(p.queueName)})
	if err != nil {
		return nil, fmt.Errorf("failed to get SQS queue URL for %s: %w", p.queueName, err)
	}

	p.queueURL = aws.ToString(resp.QueueUrl)

	p.initialized = true

	return p, nil
}

// Name returns the SQS queue name supplied to [New].
func (p *Publisher) Name() string {
	return p.queueName
}

// Publish sends event as a JSON message. The owner ID is the message group, so
// events for one owner are delivered in order. The deduplication ID is derived
// from the event ID, type, owner ID and item ID, which makes retried publishes
// of the same event collapse into one message while distinct events never do.
func (p *Publisher) Publish(ctx context.Context, event todos.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal item event: %w", err)
	}

	if event.ID == "" {
		return errors.New("event ID cannot be empty")
	}

	dedupID := hash(event.ID, string(event.Type), event.OwnerID, event.ItemID)

	if err := p.Send(ctx, event.OwnerID, dedupID, string(body)); err != nil {
		return err
	}

	p.logger.Debug("Item event published", "type", event.Type, "owner_id", event.OwnerID, "item_id", event.ItemID)

	return nil
}

// Send publishes a single message to the FIFO queue.
//
// groupID is used as the SQS MessageGroupId, which determines message
// ordering within the queue. dedupID is used as the SQS
// MessageDeduplicationId; SQS will silently discard messages with a
// duplicate ID within the 5-minute deduplication window. Both fields are
// required and must be non-empty.
//
// Send requires [Publisher.Init] to have been called successfully.
func (p *Publisher) Send(ctx context.Context, groupID, dedupID, body string) error {
	if !p.initialized {
		return errors.New("SQS publisher not initialized")
	}

	if groupID == "" {
		return errors.New("groupID cannot be empty")
	}

	if dedupID == "" {
		return errors.New("dedupID cannot be empty")
	}

	if body == "" {
		return errors.New("body cannot be empty")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:               &p.queueURL,
		MessageGroupId:         &groupID,
		MessageDeduplicationId: &dedupID,
		MessageBody:            &body,
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}

	return nil
}

func hash(input ...string) string {
	h := sha256.New()

	for _, s := range input {
		h.Write([]byte(s))
		h.Write([]byte{0}) // null byte delimiter to prevent hash collisions
	}

	bs := h.Sum(nil)

	return base64.URLEncoding.EncodeToString(bs)
}
