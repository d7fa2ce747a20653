package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kazimoto/shule/core/profile"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	profiles *profile.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                  - create the database and app user if missing")
	fmt.Println("  migrate COMMAND [ARGS]    - run a goose migration command (up, down, status, ...)")
	fmt.Println("  grantsuper -email EMAIL   - grant the super_admin role to a profile")
	fmt.Println("  revokesuper -email EMAIL  - revoke the super_admin role from a profile")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	grantSuperCmd := flag.NewFlagSet("grantsuper", flag.ExitOnError)
	grantSuperEmail := grantSuperCmd.String("email", "", "The profile's email address.")

	revokeSuperCmd := flag.NewFlagSet("revokesuper", flag.ExitOnError)
	revokeSuperEmail := revokeSuperCmd.String("email", "", "The profile's email address.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "grantsuper":
		if err := grantSuperCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantSuperEmail == "" {
			grantSuperCmd.Usage()
			return errHelp
		}
		return cli.grantSuper(*grantSuperEmail)
	case "revokesuper":
		if err := revokeSuperCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *revokeSuperEmail == "" {
			revokeSuperCmd.Usage()
			return errHelp
		}
		return cli.revokeSuper(*revokeSuperEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
