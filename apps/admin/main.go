package main

import (
	"log"
	"os"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/storage/database"
	"github.com/kazimoto/shule/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	core.InitConf()

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:       db,
		profiles: profile.NewService(sqlxrepos.NewProfileRepository(db)),
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
