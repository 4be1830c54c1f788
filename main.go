package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/escolarhq/escolar/api/echo"
	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
	logsvc "github.com/escolarhq/escolar/services/logger"
	"github.com/escolarhq/escolar/storage/database"
	sqlxrepos "github.com/escolarhq/escolar/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	var logger core.Logger
	if conf.Debug {
		logger = core.NewStdLogger()
	} else {
		logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "", log.LstdFlags), conf)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Migrate(db.DB))

	// set up services
	instSvc := institution.NewService(sqlxrepos.NewInstitutionRepository(db))
	expSvc := export.NewService(conf, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:   conf.ServerAddress(),
		Conf:      conf,
		Logger:    logger,
		InstSvc:   instSvc,
		ExportSvc: expSvc,
	})
	go app.Start()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("server shutdown", err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
