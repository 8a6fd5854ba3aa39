package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

/******************************************************************************

This file is the entry point for the edgar command line utility. It also acts
as a general template that outlines everything available to the user.

Initial argparsing and app definition is done entirely through
"github.com/urfave/cli/v2" for which you can find the docs here:

https://github.com/urfave/cli/blob/master/docs/v2/manual.md

The app is defined via the &cli.App{} struct which gets Name, Usage, and
Commands at the top level. Command bodies live in commands.go so this file
stays a readable table of contents.

******************************************************************************/

// main is well... the main entry point for our command line app. We seperate
// it from the actual &cli.App to help with testing.
func main() {
	run(os.Args)
}

// run is seperated from main and application for debugging's sake.
func run(args []string) {
	app := application()
	err := app.Run(args) // run app and log errors
	if err != nil {
		log.Fatal(err)
	}
}

// application defines instances of our app. It's where we template commands
// and where initial arg parsing occurs.
func application() *cli.App {

	app := &cli.App{
		Name:  "edgar",
		Usage: "A command line utility for unpacking SEC EDGAR SGML submissions.",

		Commands: []*cli.Command{

			{
				Name:    "extract",
				Aliases: []string{"x"},
				Usage:   "Extract a submission into metadata.json plus one file per embedded document.",

				Flags: []cli.Flag{

					&cli.StringFlag{
						Name:  "o",
						Value: ".",
						Usage: "Specify the output directory. Defaults to the current directory.",
					},

					&cli.BoolFlag{
						Name:  "names",
						Usage: "Name document files after the filename tag in their metadata instead of document_<i>.<ext>.",
					},
				},
				Action: func(c *cli.Context) error {
					return extractCommand(c)
				},
			},

			{
				Name:    "hash",
				Aliases: []string{"ha"},
				Usage:   "Print a checksum for every document in a submission.",

				Flags: []cli.Flag{

					&cli.StringFlag{
						Name:  "f",
						Value: "blake3",
						Usage: "Specify hash function type. Has many options. Blake3 is probably fastest.",
					},
				},
				Action: func(c *cli.Context) error {
					return hashCommand(c)
				},
			},

			{
				Name:    "benchmark",
				Aliases: []string{"b"},
				Usage:   "Parse every .sgml file in a directory and report per-file timings.",

				Flags: []cli.Flag{

					&cli.StringFlag{
						Name:  "o",
						Usage: "Also write the timing report to this TSV file.",
					},
				},
				Action: func(c *cli.Context) error {
					return benchmarkCommand(c)
				},
			},

			{
				Name:    "index",
				Aliases: []string{"ix"},
				Usage:   "Catalog submissions and their documents into a local sqlite database.",

				Flags: []cli.Flag{

					&cli.StringFlag{
						Name:  "d",
						Value: "filings.db",
						Usage: "Path of the sqlite database to create or extend.",
					},
				},
				Action: func(c *cli.Context) error {
					return indexCommand(c)
				},
			},
		},
	}

	return app
}
