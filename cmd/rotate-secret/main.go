package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"leafmarket.io/internal/audit"
	"leafmarket.io/internal/secrets"
)

func main() {
	log.SetFlags(0)
	var (
		dsn      = flag.String("dsn", os.Getenv("LEAF_PG_DSN"), "PostgreSQL DSN")
		operator = flag.String("operator", "", "Operator identity recorded in the rotation audit")
		reason   = flag.String("reason", "", "Optional reason recorded alongside the rotation")
		limit    = flag.Int("limit", 20, "Entries to show for the history command")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or LEAF_PG_DSN")
	}

	command := "rotate"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	switch command {
	case "rotate":
		rotate(ctx, db, *operator, *reason)
	case "history":
		history(ctx, db, *limit)
	default:
		log.Fatalf("unknown command %q (expected rotate or history)", command)
	}
}

// rotate swaps in freshly generated secret material. The previous secret
// stays valid for verification until the next rotation.
func rotate(ctx context.Context, db *sql.DB, operator, reason string) {
	if strings.TrimSpace(operator) == "" {
		log.Fatal("missing operator: provide via -operator")
	}

	provider, err := secrets.NewPGProvider(ctx, db)
	if err != nil {
		log.Fatalf("load signing secrets: %v", err)
	}
	rotation, err := provider.Rotate(ctx, operator, reason)
	if err != nil {
		log.Fatalf("rotate: %v", err)
	}

	fmt.Printf("rotated signing secret\n")
	fmt.Printf("  id:       %s\n", rotation.ID)
	fmt.Printf("  operator: %s\n", rotation.Operator)
	if rotation.Reason != "" {
		fmt.Printf("  reason:   %s\n", rotation.Reason)
	}
	fmt.Printf("  at:       %s\n", rotation.OccurredAt.Format(time.RFC3339))
}

func history(ctx context.Context, db *sql.DB, limit int) {
	store := audit.NewPGStore(db)
	entries, err := store.List(ctx, limit)
	if err != nil {
		log.Fatalf("list rotations: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no rotations recorded")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s  %s", e.OccurredAt.Format(time.RFC3339), e.ID, e.Operator)
		if e.Reason != "" {
			line += "  " + e.Reason
		}
		fmt.Println(line)
	}
}
