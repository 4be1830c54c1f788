package main

import (
	"log"
	"os"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
	"github.com/escolarhq/escolar/storage/database"
	sqlxrepos "github.com/escolarhq/escolar/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := core.NewStdLogger()

	db, err := database.Open(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	cli := &commandLine{
		db:      db.DB,
		instSvc: institution.NewService(sqlxrepos.NewInstitutionRepository(db)),
		expSvc:  export.NewService(conf, logger),
	}
	if err := cli.run(os.Args); err != nil && err != errHelp {
		log.Fatal(err)
	}
}
