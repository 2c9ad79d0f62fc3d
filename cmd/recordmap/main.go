package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recordmap/recordmap"
	_ "github.com/recordmap/recordmap/auth" // registers the users schema
)

var (
	databaseURL string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "recordmap",
	Short: "Inspect and prepare recordmap-managed stores",
	Long:  `recordmap works with SQLite, PostgreSQL, and MySQL stores managed through declarative record schemas. Connection URLs use the sqlite://, postgres://, or mysql:// schemes.`,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConn()
		if err != nil {
			return err
		}
		defer closeConn(conn)

		if err := conn.Connect(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s store reachable\n", conn.Engine())
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConn()
		if err != nil {
			return err
		}
		defer closeConn(conn)

		names, err := listTables(context.Background(), conn)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print CREATE TABLE statements for every registered schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderDDL(cmd.OutOrStdout())
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Materialize every registered schema in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConn()
		if err != nil {
			return err
		}
		defer closeConn(conn)

		ctx := context.Background()
		for _, s := range recordmap.Schemas() {
			if _, err := conn.Exec(ctx, s.CreateStatement()); err != nil {
				return fmt.Errorf("failed to create table %s: %w", s.Table(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", s.Table())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "database connection URL (sqlite://, postgres://, or mysql://)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log statements to stderr")
	rootCmd.AddCommand(pingCmd, tablesCmd, ddlCmd, initCmd)
}

func openConn() (*recordmap.Conn, error) {
	if databaseURL == "" {
		return recordmap.DefaultManager()
	}
	var opts []recordmap.ConnOption
	if verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, recordmap.WithLogger(logger))
	}
	return recordmap.Open(databaseURL, opts...)
}

func closeConn(conn *recordmap.Conn) {
	if err := conn.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close connection: %v\n", err)
	}
}

// listTables queries the engine's catalog for user tables.
func listTables(ctx context.Context, conn *recordmap.Conn) ([]string, error) {
	var stmt string
	switch conn.Engine() {
	case "sqlite":
		stmt = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case "postgres":
		stmt = `SELECT table_name AS name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	case "mysql":
		stmt = `SELECT table_name AS name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`
	default:
		return nil, fmt.Errorf("unsupported engine: %s", conn.Engine())
	}

	recs, err := conn.FetchAll(ctx, stmt)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(recs))
	for _, rec := range recs {
		switch v := rec["name"].(type) {
		case string:
			names = append(names, v)
		case []byte:
			names = append(names, string(v))
		}
	}
	return names, nil
}

// renderDDL writes the create statement of every registered schema.
func renderDDL(w io.Writer) error {
	for _, s := range recordmap.Schemas() {
		if _, err := fmt.Fprintf(w, "%s;\n", s.CreateStatement()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
