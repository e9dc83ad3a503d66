package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/eakinwale/acadia/apps/api/echo"
	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/assignment"
	"github.com/eakinwale/acadia/core/course"
	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
	emailsvc "github.com/eakinwale/acadia/services/email"
	logsvc "github.com/eakinwale/acadia/services/logger"
	"github.com/eakinwale/acadia/storage/database"
	sqlxrepos "github.com/eakinwale/acadia/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" - ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	dbx := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	courseRepo := sqlxrepos.NewCourseRepository(dbx)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx))
	crsSvc := course.NewService(courseRepo)
	apprSvc := approval.NewService(sqlxrepos.NewApprovalRepository(dbx), usrSvc, mailSvc, logger)
	resSvc := result.NewService(sqlxrepos.NewResultRepository(dbx), courseRepo, apprSvc, core.Conf)
	asgSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(dbx), core.Conf, logger)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			Logger:        logger,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			ResultSvc:     resSvc,
			ApprovalSvc:   apprSvc,
			AssignmentSvc: asgSvc,
		},
	)
	if err := app.Start(); err != nil {
		logger.Fatal("server stopped", err)
	}
}
