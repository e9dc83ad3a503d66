package main

import (
	"context"
	"fmt"
)

// backfill recomputes totals and grades for every stored result against the
// active grade scale, rewriting only rows that drifted.
func (cli *commandLine) backfill() error {
	updated, err := cli.resSvc.Backfill(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("backfill complete: %d result(s) updated\n", updated)
	return nil
}
