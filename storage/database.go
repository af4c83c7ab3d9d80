package storage

import (
	"context"
	_ "embed"
	"path/filepath"
	"strings"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"

	. "vemoji/common"
)

//go:embed sql/database_schema.sql
var schema string

var dbPool *sqlitemigration.Pool
var dbWait sync.WaitGroup
var dbLog = NewLogger("DATABASE")

func StartDatabase(ctx context.Context) *sync.WaitGroup {
	dbWait.Add(1)
	dbLog.Println("Starting")

	dbFile := filepath.Join(DataFolder, "cache.db")

	schema := sqlitemigration.Schema{
		Migrations: strings.Split(schema, "\n\n"),
	}

	dbPool = sqlitemigration.NewPool(dbFile, schema, sqlitemigration.Options{
		Flags: sqlite.OpenReadWrite | sqlite.OpenCreate,

		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode = WAL;", nil)
		},
		OnError: func(err error) {
			dbLog.Panicln(err)
		},
	})

	conn, err := dbPool.Get(context.TODO())
	if err != nil {
		panic(err.Error())
	}
	dbPool.Put(conn)

	go func() {
		<-ctx.Done()
		dbPool.Close()
		dbLog.Println("Finished")
		dbWait.Done()
	}()

	return &dbWait
}

func OpenDatabase(ctx context.Context) (*sqlite.Conn, error) {
	return dbPool.Get(ctx)
}

func CloseDatabase(conn *sqlite.Conn) {
	dbPool.Put(conn)
}
