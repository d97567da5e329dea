package output

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL driver
	_ "github.com/go-sql-driver/mysql"   // MySQL driver
	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// Поддерживаемые СУБД
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverMSSQL    = "mssql"
	DriverPostgres = "postgres"
)

// SQLConfig - загрузка результата в таблицу БД.
// Таблица пересоздается при каждом запуске (drop + create + insert в одной транзакции).
type SQLConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite mysql mssql postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
	Table  string `yaml:"table" validate:"required"`
}

// dialect описывает различия SQL-диалектов
type dialect struct {
	driverName  string // имя для sql.Open
	quote       func(string) string
	placeholder func(n int) string
	realType    string
	textType    string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driverName:  "sqlite",
		quote:       quoteWith(`"`, `"`),
		placeholder: func(int) string { return "?" },
		realType:    "REAL",
		textType:    "TEXT",
	},
	DriverMySQL: {
		driverName:  "mysql",
		quote:       quoteWith("`", "`"),
		placeholder: func(int) string { return "?" },
		realType:    "DOUBLE",
		textType:    "TEXT",
	},
	// "sqlserver" разбирает именованные параметры @pN; "mssql" понимает только ?, $N и :N
	DriverMSSQL: {
		driverName:  "sqlserver",
		quote:       quoteWith("[", "]"),
		placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
		realType:    "FLOAT",
		textType:    "NVARCHAR(MAX)",
	},
	// postgres пишется через pgx.CopyFrom, без database/sql
	DriverPostgres: {
		quote:       func(s string) string { return pgx.Identifier{s}.Sanitize() },
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		realType:    "DOUBLE PRECISION",
		textType:    "TEXT",
	},
}

func quoteWith(open, closing string) func(string) string {
	return func(s string) string {
		return open + strings.ReplaceAll(s, closing, closing+closing) + closing
	}
}

// WriteSQL загружает набор в таблицу БД и возвращает число записанных строк
func WriteSQL(ctx context.Context, ds *table.Dataset, cfg SQLConfig) (int, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return 0, errs.Persistence(Stage, cfg.Table, fmt.Errorf("unsupported database driver: %s", cfg.Driver))
	}

	var err error
	if cfg.Driver == DriverPostgres {
		err = writePostgres(ctx, ds, cfg, d)
	} else {
		err = writeDatabaseSQL(ctx, ds, cfg, d)
	}
	if err != nil {
		return 0, errs.Persistence(Stage, cfg.Driver+":"+cfg.Table, err)
	}
	return ds.Len(), nil
}

// createTableSQL формирует DDL по схеме набора
func createTableSQL(ds *table.Dataset, tableName string, d dialect) string {
	columns := make([]string, len(ds.Schema.Fields))
	for i, field := range ds.Schema.Fields {
		sqlType := d.textType
		if field.Type.IsNumeric() {
			sqlType = d.realType
		}
		columns[i] = fmt.Sprintf("%s %s", d.quote(field.Name), sqlType)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.quote(tableName), strings.Join(columns, ",\n  "))
}

// insertSQL формирует INSERT с плейсхолдерами диалекта
func insertSQL(ds *table.Dataset, tableName string, d dialect) string {
	names := make([]string, len(ds.Schema.Fields))
	placeholders := make([]string, len(ds.Schema.Fields))
	for i, field := range ds.Schema.Fields {
		names[i] = d.quote(field.Name)
		placeholders[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(tableName), strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

// rowArgs конвертирует строку в аргументы запроса: NULL, float64 или string
func rowArgs(ds *table.Dataset, row table.Row) []any {
	args := make([]any, len(row))
	for i, v := range row {
		switch {
		case v.Null:
			args[i] = nil
		case ds.Schema.Fields[i].Type.IsNumeric():
			f, _ := v.Float()
			args[i] = f
		default:
			args[i] = v.String()
		}
	}
	return args
}

func writeDatabaseSQL(ctx context.Context, ds *table.Dataset, cfg SQLConfig, d dialect) error {
	db, err := sql.Open(d.driverName, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.quote(cfg.Table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(ds, cfg.Table, d)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if ds.Len() > 0 {
		stmt, err := tx.PrepareContext(ctx, insertSQL(ds, cfg.Table, d))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range ds.Rows {
			if _, err := stmt.ExecContext(ctx, rowArgs(ds, row)...); err != nil {
				return fmt.Errorf("failed to insert row %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// writePostgres загружает данные через COPY
func writePostgres(ctx context.Context, ds *table.Dataset, cfg SQLConfig, d dialect) error {
	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+d.quote(cfg.Table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(ds, cfg.Table, d)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	rows := make([][]any, len(ds.Rows))
	for i, row := range ds.Rows {
		rows[i] = rowArgs(ds, row)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{cfg.Table}, ds.Schema.Names(), pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to copy rows: %w", err)
	}

	return tx.Commit(ctx)
}
