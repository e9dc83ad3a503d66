package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
	emailsvc "github.com/eakinwale/acadia/services/email"
	logsvc "github.com/eakinwale/acadia/services/logger"
	"github.com/eakinwale/acadia/storage/database"
	sqlxrepos "github.com/eakinwale/acadia/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(err)
	}
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	dbx := sqlx.NewDb(db, "postgres")

	courseRepo := sqlxrepos.NewCourseRepository(dbx)
	resultRepo := sqlxrepos.NewResultRepository(dbx)
	usrRepo := sqlxrepos.NewUserRepository(dbx)
	usrSvc := user.NewService(usrRepo)
	apprSvc := approval.NewService(
		sqlxrepos.NewApprovalRepository(dbx), usrSvc,
		emailsvc.NewConsoleService(), logsvc.NewStdLogger(logger),
	)

	// start CLI
	cli := commandLine{
		db:      db,
		usrSvc:  usrSvc,
		usrRepo: usrRepo,
		resSvc:  result.NewService(resultRepo, courseRepo, apprSvc, core.Conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
