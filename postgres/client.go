package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slackmgr/todos"
)

var errNotConnected = errors.New("client is not connected")

// pool defines the interface for database operations.
// This interface is satisfied by *pgxpool.Pool and can be mocked for testing.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
	Ping(ctx context.Context) error
}

// scanner is implemented by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const itemColumns = "owner_id, item_id, name, due_date, done, created_at, COALESCE(attachment_reference, '')"

type Client struct {
	conn   pool
	opts   *options
	logger *slog.Logger
}

var _ todos.Store = (*Client)(nil)

func New(opts ...Option) *Client {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{opts: o}

	if o.logger != nil {
		c.logger = o.logger.With("plugin", "postgres", "table", o.table)
	}

	return c
}

func (c *Client) Connect(ctx context.Context) error {
	// Close existing connection if any to prevent leaks
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid Postgres db configuration: %w", err)
	}

	config, err := pgxpool.ParseConfig(c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("failed to parse Postgres db connection string: %w", err)
	}

	if c.opts.poolMaxConnections != nil {
		config.MaxConns = *c.opts.poolMaxConnections
	}

	if c.opts.poolMinConnections != nil {
		config.MinConns = *c.opts.poolMinConnections
	}

	if c.opts.poolMinIdleConnections != nil {
		config.MinIdleConns = *c.opts.poolMinIdleConnections
	}

	if c.opts.poolMaxConnectionLifetime != nil {
		config.MaxConnLifetime = *c.opts.poolMaxConnectionLifetime
	}

	if c.opts.poolMaxConnectionIdleTime != nil {
		config.MaxConnIdleTime = *c.opts.poolMaxConnectionIdleTime
	}

	if c.opts.poolHealthCheckPeriod != nil {
		config.HealthCheckPeriod = *c.opts.poolHealthCheckPeriod
	}

	if c.opts.poolMaxConnectionLifetimeJitter != nil {
		config.MaxConnLifetimeJitter = *c.opts.poolMaxConnectionLifetimeJitter
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create new Postgres connection pool: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	c.conn = conn

	c.logger.Debug("Connected to Postgres", "host", c.opts.host, "database", c.opts.database)

	return nil
}

func (c *Client) Close(_ context.Context) error {
	if c.conn == nil {
		return nil
	}

	c.conn.Close()

	c.conn = nil

	return nil
}

// Init creates the items table if it does not exist and, unless
// skipSchemaValidation is set, verifies that its columns have the expected
// types and nullability.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin init transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.createStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute create statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit init transaction: %w", err)
	}

	if skipSchemaValidation {
		return nil
	}

	query := "SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"

	rows, err := c.conn.Query(ctx, query, c.opts.table)
	if err != nil {
		return fmt.Errorf("failed to query information schema: %w", err)
	}

	defer rows.Close()

	infoRows := map[string]*dbRow{}

	for rows.Next() {
		var table, column string
		infoRow := &dbRow{}

		if err := rows.Scan(&table, &column, &infoRow.DataType, &infoRow.IsNullable); err != nil {
			return fmt.Errorf("failed to scan row from information schema: %w", err)
		}

		infoRows[table+"."+column] = infoRow
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows from information schema: %w", err)
	}

	if err := c.opts.verifyCurrentDatabaseVersion(infoRows); err != nil {
		return fmt.Errorf("failed to verify current database version: %w", err)
	}

	return nil
}

// DropAllData drops the items table. It is intended for tests.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin drop tables transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.dropStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drop tables transaction: %w", err)
	}

	return nil
}

// List returns all items owned by ownerID, ordered by item ID.
func (c *Client) List(ctx context.Context, ownerID string) ([]todos.Item, error) {
	const op = "list items"

	if c.conn == nil {
		return nil, todos.StoreUnavailable(op, errNotConnected)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_id = $1 ORDER BY item_id", itemColumns, c.opts.table)

	rows, err := c.conn.Query(ctx, query, ownerID)
	if err != nil {
		c.logger.Error("Failed to fetch items", "owner_id", ownerID, "error", err)
		return nil, todos.StoreUnavailable(op, fmt.Errorf("failed to query items in Postgres db: %w", err))
	}

	defer rows.Close()

	items := []todos.Item{}

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			c.logger.Error("Failed to fetch items", "owner_id", ownerID, "error", err)
			return nil, todos.StoreUnavailable(op, fmt.Errorf("failed to scan item row: %w", err))
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		c.logger.Error("Failed to fetch items", "owner_id", ownerID, "error", err)
		return nil, todos.StoreUnavailable(op, fmt.Errorf("error iterating over item rows: %w", err))
	}

	return items, nil
}

// Create inserts a new item built from draft with a generated item ID and the
// current time, truncated to milliseconds, as its creation time.
func (c *Client) Create(ctx context.Context, draft todos.Draft) (*todos.Item, error) {
	const op = "create item"

	if c.conn == nil {
		return nil, todos.StoreUnavailable(op, errNotConnected)
	}

	createdAt := c.opts.clock().UTC().Truncate(time.Millisecond)
	item := draft.Item(c.opts.idGenerator(), createdAt)

	param1 := item.OwnerID
	param2 := item.ItemID
	param3 := item.Name
	param4 := item.DueDate
	param5 := item.Done
	param6 := createdAt

	sql := fmt.Sprintf("INSERT INTO %s (owner_id, item_id, name, due_date, done, created_at) VALUES ($1, $2, $3, $4, $5, $6)", c.opts.table)

	if _, err := c.conn.Exec(ctx, sql, param1, param2, param3, param4, param5, param6); err != nil {
		c.logger.Error("Failed to create item", "owner_id", item.OwnerID, "item_id", item.ItemID, "error", err)
		return nil, todos.StoreUnavailable(op, fmt.Errorf("failed to insert item in Postgres db: %w", err))
	}

	c.logger.Debug("Item inserted", "owner_id", item.OwnerID, "item_id", item.ItemID)

	return item, nil
}

// Update overwrites name, due date and done state of an existing item and
// returns the resulting row.
func (c *Client) Update(ctx context.Context, ownerID, itemID string, req todos.UpdateRequest) (*todos.Item, error) {
	const op = "update item"

	if c.conn == nil {
		return nil, todos.StoreUnavailable(op, errNotConnected)
	}

	param1 := ownerID
	param2 := itemID
	param3 := req.Name
	param4 := req.DueDate
	param5 := req.Done

	sql := fmt.Sprintf("UPDATE %s SET name = $3, due_date = $4, done = $5 WHERE owner_id = $1 AND item_id = $2 RETURNING %s", c.opts.table, itemColumns)

	item, err := scanItem(c.conn.QueryRow(ctx, sql, param1, param2, param3, param4, param5))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, todos.ItemNotFound(op, ownerID, itemID)
		}

		c.logger.Error("Failed to update item", "owner_id", ownerID, "item_id", itemID, "error", err)
		return nil, todos.StoreUnavailable(op, fmt.Errorf("failed to update item in Postgres db: %w", err))
	}

	return item, nil
}

// Delete removes an item. Deleting a missing item is not an error.
func (c *Client) Delete(ctx context.Context, ownerID, itemID string) error {
	const op = "delete item"

	if c.conn == nil {
		return todos.StoreUnavailable(op, errNotConnected)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE owner_id = $1 AND item_id = $2", c.opts.table)

	if _, err := c.conn.Exec(ctx, sql, ownerID, itemID); err != nil {
		c.logger.Error("Failed to delete item", "owner_id", ownerID, "item_id", itemID, "error", err)
		return todos.StoreUnavailable(op, fmt.Errorf("failed to delete item from Postgres db: %w", err))
	}

	return nil
}

// SetAttachmentReference sets the attachment reference of an existing item.
func (c *Client) SetAttachmentReference(ctx context.Context, ownerID, itemID, url string) error {
	const op = "set attachment reference"

	if c.conn == nil {
		return todos.StoreUnavailable(op, errNotConnected)
	}

	sql := fmt.Sprintf("UPDATE %s SET attachment_reference = $3 WHERE owner_id = $1 AND item_id = $2", c.opts.table)

	tag, err := c.conn.Exec(ctx, sql, ownerID, itemID, url)
	if err != nil {
		c.logger.Error("Failed to update attachment reference", "owner_id", ownerID, "item_id", itemID, "error", err)
		return todos.StoreUnavailable(op, fmt.Errorf("failed to set attachment reference in Postgres db: %w", err))
	}

	if tag.RowsAffected() == 0 {
		return todos.ItemNotFound(op, ownerID, itemID)
	}

	return nil
}

func scanItem(row scanner) (*todos.Item, error) {
	var item todos.Item
	var createdAt time.Time

	if err := row.Scan(&item.OwnerID, &item.ItemID, &item.Name, &item.DueDate, &item.Done, &createdAt, &item.AttachmentReference); err != nil {
		return nil, err
	}

	item.CreatedAt = todos.FormatTimestamp(createdAt)

	return &item, nil
}
