// Package schema holds the DDL for every table the services read and write
// files apply in name order and are idempotent
package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"galactly/internal/platform/store"
)

//go:embed pg/*.sql ch/*.sql
var files embed.FS

// Statements returns the statements of one backend dir ("pg" or "ch") in apply order
func Statements(dir string) ([]string, error) {
	names, err := fs.Glob(files, dir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	var out []string
	for _, n := range names {
		b, err := files.ReadFile(n)
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(b), ";") {
			if s := strings.TrimSpace(stmt); s != "" {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// ApplyPG runs the Postgres DDL inside one transaction
func ApplyPG(ctx context.Context, db store.TxRunner) error {
	stmts, err := Statements("pg")
	if err != nil {
		return err
	}
	return db.Tx(ctx, func(q store.RowQuerier) error {
		for i, s := range stmts {
			if _, err := q.Exec(ctx, s); err != nil {
				return fmt.Errorf("schema: pg statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// ApplyCH runs the ClickHouse DDL
func ApplyCH(ctx context.Context, ch store.Clickhouse) error {
	stmts, err := Statements("ch")
	if err != nil {
		return err
	}
	for i, s := range stmts {
		if err := ch.Exec(ctx, s); err != nil {
			return fmt.Errorf("schema: ch statement %d: %w", i+1, err)
		}
	}
	return nil
}
