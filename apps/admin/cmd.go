package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sql.DB
	instSvc *institution.Service
	expSvc  *export.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|down|status|...] - run database migrations")
	fmt.Println("  export -format excel|pdf [-out DIR] [-stats] [-from YYYY-MM-DD] [-to YYYY-MM-DD] - export institutions to a file")
	fmt.Println("  seed - load sample institutions")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFormat := exportCmd.String("format", "excel", "Output format: excel or pdf.")
	exportOut := exportCmd.String("out", ".", "Directory the artifact is written into.")
	exportStats := exportCmd.Bool("stats", false, "Include per-institution statistics.")
	exportFrom := exportCmd.String("from", "", "Only institutions created on/after this date (YYYY-MM-DD).")
	exportTo := exportCmd.String("to", "", "Only institutions created on/before this date (YYYY-MM-DD).")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(*exportFormat, *exportOut, *exportStats, *exportFrom, *exportTo)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
