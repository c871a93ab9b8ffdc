// Package postgres provides a PostgreSQL-backed implementation of the
// [github.com/slackmgr/todos.Store] interface.
//
// It uses pgx v5 with connection pooling (pgxpool). Items live in a single
// table keyed by (owner_id, item_id), so every query is scoped to one owner.
//
// # Usage
//
// Create a client using [New] with functional options, call [Client.Connect]
// to establish the connection pool, and then [Client.Init] to create the
// database schema:
//
//	client := postgres.New(
//	    postgres.WithHost("localhost"),
//	    postgres.WithPort(5432),
//	    postgres.WithUser("postgres"),
//	    postgres.WithPassword("secret"),
//	    postgres.WithDatabase("todos"),
//	)
//
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	if err := client.Init(ctx, false); err != nil {
//	    log.Fatal(err)
//	}
//
// # Database Table
//
// [Client.Init] creates the items table (default name todo_items, see
// [WithTable]) with these columns:
//
//   - owner_id, item_id: text, together the primary key
//   - name, due_date: text
//   - done: boolean
//   - created_at: timestamp with time zone, stored at millisecond precision
//   - attachment_reference: nullable text
//
// # Missing Items
//
// Updates and attachment references only touch existing rows. When no row
// matches, the operation fails with [github.com/slackmgr/todos.ErrItemNotFound]
// and nothing is inserted. Deletes are idempotent.
//
// # Connection Pool
//
// The underlying pgxpool can be tuned with the pool-specific options:
// [WithPoolMaxConnections], [WithPoolMinConnections],
// [WithPoolMinIdleConnections], [WithPoolMaxConnectionLifetime],
// [WithPoolMaxConnectionIdleTime], [WithPoolHealthCheckPeriod], and
// [WithPoolMaxConnectionLifetimeJitter].
//
// # Schema Validation
//
// When [Client.Init] is called with skipSchemaValidation set to false, it
// queries information_schema.columns and verifies that every expected column
// exists with the correct data type and nullability. Pass true to skip this
// check in environments where the schema is managed externally.
//
// # SSL
//
// SSL behaviour is controlled by [WithSSLMode] using the [SSLMode] constants
// ([SSLModeDisable], [SSLModeAllow], [SSLModePrefer], [SSLModeRequire],
// [SSLModeVerifyCA], [SSLModeVerifyFull]). The default is [SSLModePrefer].
package postgres
