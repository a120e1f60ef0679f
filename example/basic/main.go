// Command basic connects a session over TCP, runs one statement, and
// prints its rows.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gomysqlx/client/resultset"
	"github.com/gomysqlx/client/session"
)

func main() {
	sess := session.New()

	ctx := context.Background()
	if err := sess.ConnectTCP(ctx, "127.0.0.1", 33060, "root", os.Getenv("MYSQL_PWD"), ""); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() { _ = sess.Close() }()

	res, err := sess.ExecuteSQL("SELECT 1 AS one, 'hello' AS greeting", nil)
	if err != nil {
		log.Fatalf("execute: %v", err)
	}
	defer func() { _ = res.Close() }()

	has, err := res.HasResultset()
	if err != nil {
		log.Fatalf("resultset: %v", err)
	}
	if !has {
		fmt.Println("no resultset")
		return
	}

	for _, col := range res.Columns {
		fmt.Printf("%s\t", col.Name)
	}
	fmt.Println()

	for {
		row, err := res.NextRow()
		if err != nil {
			log.Fatalf("row: %v", err)
		}
		if row == nil {
			break
		}
		for _, f := range row.Field {
			fmt.Printf("%s\t", formatValue(f))
		}
		fmt.Println()
	}
}

func formatValue(v resultset.Value) string {
	switch {
	case v.Null:
		return "NULL"
	case v.Str != "":
		return v.Str
	case v.Raw != nil:
		return fmt.Sprintf("%x", v.Raw)
	case v.Float != 0:
		return fmt.Sprintf("%v", v.Float)
	case v.UInt != 0:
		return fmt.Sprintf("%d", v.UInt)
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}
