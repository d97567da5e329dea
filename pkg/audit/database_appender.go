package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
)

// DatabaseAppender - запись журнала в SQL таблицу.
// Используются плейсхолдеры "?" (SQLite, MySQL).
type DatabaseAppender struct {
	db         *sql.DB
	ownsDB     bool
	tableName  string
	level      Level
	insertStmt *sql.Stmt
}

// DatabaseAppenderConfig - конфигурация database appender
type DatabaseAppenderConfig struct {
	// DB - подключение к базе данных
	DB *sql.DB

	// TableName - имя таблицы журнала
	TableName string

	// Level - уровень детализации
	Level Level

	// AutoCreateTable - создать таблицу если не существует
	AutoCreateTable bool
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewDatabaseAppender - создать database appender
func NewDatabaseAppender(ctx context.Context, config DatabaseAppenderConfig) (*DatabaseAppender, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if config.TableName == "" {
		config.TableName = "wrangler_audit"
	}
	if !tableNamePattern.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid audit table name %q", config.TableName)
	}

	da := &DatabaseAppender{
		db:        config.DB,
		tableName: config.TableName,
		level:     config.Level,
	}

	if config.AutoCreateTable {
		if err := da.createTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to create audit table: %w", err)
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		id, run_id, timestamp, pipeline, stage, status,
		rows_in, rows_out, duration_ms, file, error_message, metadata
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, da.tableName)

	stmt, err := da.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	da.insertStmt = stmt
	return da, nil
}

// OpenDatabaseAppender открывает БД по драйверу и DSN; соединение закрывается в Close
func OpenDatabaseAppender(ctx context.Context, driver, dsn, table string, level Level) (*DatabaseAppender, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	da, err := NewDatabaseAppender(ctx, DatabaseAppenderConfig{
		DB:              db,
		TableName:       table,
		Level:           level,
		AutoCreateTable: true,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	da.ownsDB = true
	return da, nil
}

func (da *DatabaseAppender) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			pipeline VARCHAR(255),
			stage VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			rows_in BIGINT DEFAULT 0,
			rows_out BIGINT DEFAULT 0,
			duration_ms BIGINT DEFAULT 0,
			file TEXT,
			error_message TEXT,
			metadata TEXT
		)
	`, da.tableName)

	if _, err := da.db.ExecContext(ctx, query); err != nil {
		return err
	}

	// Индекс не обязателен: ошибка создания игнорируется
	da.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_run ON %s(run_id)", da.tableName, da.tableName))
	return nil
}

// Append - записать entry в базу данных
func (da *DatabaseAppender) Append(ctx context.Context, entry *Entry) error {
	filtered := entry.FilterByLevel(da.level)

	metadata := []byte("{}")
	if len(filtered.Metadata) > 0 {
		if data, err := json.Marshal(filtered.Metadata); err == nil {
			metadata = data
		}
	}

	_, err := da.insertStmt.ExecContext(ctx,
		filtered.ID,
		filtered.RunID,
		filtered.Timestamp.UTC(),
		filtered.Pipeline,
		filtered.Stage,
		string(filtered.Status),
		filtered.RowsIn,
		filtered.RowsOut,
		filtered.Duration.Milliseconds(),
		filtered.File,
		filtered.Error,
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Close - закрыть statement (и соединение, если оно открыто appender'ом)
func (da *DatabaseAppender) Close() error {
	var err error
	if da.insertStmt != nil {
		err = da.insertStmt.Close()
	}
	if da.ownsDB {
		if cerr := da.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
