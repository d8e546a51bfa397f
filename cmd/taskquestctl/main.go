// Command taskquestctl is the operator's tool for a taskquest database:
// apply migrations, seed achievements, print the ranking and audit a player.
//
//	taskquestctl migrate
//	taskquestctl seed [--file achievements.yaml]
//	taskquestctl ranking [--limit 10]
//	taskquestctl user show ana@example.com
//
// The database comes from --db, then DB_PATH, then data/taskquest.db.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
