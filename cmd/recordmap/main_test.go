package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/recordmap/recordmap"
)

func TestRenderDDLIncludesRegisteredSchemas(t *testing.T) {
	var buf bytes.Buffer
	if err := renderDDL(&buf); err != nil {
		t.Fatalf("renderDDL failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS users") {
		t.Errorf("expected users DDL in output, got:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), ";") {
		t.Errorf("statements must be terminated, got:\n%s", out)
	}
}

func TestListTablesSQLite(t *testing.T) {
	conn, err := recordmap.Open("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	if err := conn.CreateTable(ctx, "users", []string{"id INTEGER PRIMARY KEY"}); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if err := conn.CreateTable(ctx, "orders", []string{"id INTEGER PRIMARY KEY"}); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	names, err := listTables(ctx, conn)
	if err != nil {
		t.Fatalf("listTables failed: %v", err)
	}
	if len(names) != 2 || names[0] != "orders" || names[1] != "users" {
		t.Errorf("expected [orders users], got %v", names)
	}
}
