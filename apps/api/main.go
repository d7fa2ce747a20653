package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/kazimoto/shule/apps/api/echo"
	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/invite"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/promotion"
	"github.com/kazimoto/shule/core/ratelimit"
	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
	emailsvc "github.com/kazimoto/shule/services/email"
	identitysvc "github.com/kazimoto/shule/services/identity"
	logsvc "github.com/kazimoto/shule/services/logger"
	"github.com/kazimoto/shule/storage/database"
	"github.com/kazimoto/shule/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	core.InitConf()
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	profileRepo := sqlxrepos.NewProfileRepository(db)
	profileSvc := profile.NewService(profileRepo)
	inviteSvc := invite.NewService(sqlxrepos.NewInviteRepository(db), profileSvc, mailSvc)
	promotionSvc := promotion.NewService(sqlxrepos.NewPromotionRepository(db), profileSvc)
	recoverySvc := recovery.NewService(sqlxrepos.NewRecoveryRepository(db), sqlxrepos.NewDocumentStore(db), profileSvc)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), recoverySvc)

	guard := auth.NewGuard(identitysvc.NewJWTVerifier(conf), profileRepo)
	limiter := ratelimit.NewLimiter(conf.RateLimit.MaxBuckets)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	profile.RegisterValidators(validate, translator)
	invite.RegisterValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Guard:        guard,
			Limiter:      limiter,
			InviteSvc:    inviteSvc,
			PromotionSvc: promotionSvc,
			RecoverySvc:  recoverySvc,
			StudentSvc:   studentSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
