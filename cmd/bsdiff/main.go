package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/minio/cli"

	"github.com/binlib/bsdiff/internal/logger"
	"github.com/binlib/bsdiff/pkg/bsdiff"
)

var formatFlag = cli.StringFlag{
	Name:  "format",
	Value: "classic",
	Usage: "container format to write: classic or endsley",
}

var outFlag = cli.StringFlag{
	Name:  "out",
	Usage: "output path (a temporary file is created if omitted)",
}

var globalFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "quiet",
		Usage: "Disable non-fatal diagnostic logging.",
	},
	cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "Include a full stack trace alongside any logged error.",
	},
}

var consoleTarget *logger.ConsoleTarget

var diffCmd = cli.Command{
	Name:   "diff",
	Usage:  "Compute a patch that turns OLD into NEW.",
	Action: mainDiff,
	Flags: []cli.Flag{
		formatFlag,
		outFlag,
		cli.StringFlag{Name: "index", Usage: "reuse a suffix array built by the index command"},
	},
}

var patchCmd = cli.Command{
	Name:   "patch",
	Usage:  "Apply a patch to OLD, reconstructing NEW.",
	Action: mainPatch,
	Flags: []cli.Flag{
		cli.StringFlag{Name: "format", Value: "auto", Usage: "container format to expect: classic, endsley, or auto to sniff the header"},
		outFlag,
	},
}

var indexCmd = cli.Command{
	Name:   "index",
	Usage:  "Build and persist OLD's suffix array for reuse across diffs.",
	Action: mainIndex,
	Flags: []cli.Flag{
		outFlag,
	},
}

func registerApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bsdiff"
	app.Usage = "Binary diff and patch."
	app.Description = `bsdiff computes and applies compact binary patches between two files
using the classic bsdiff4 and Endsley bsdiff43 container formats.`
	app.Flags = globalFlags
	app.Commands = []cli.Command{diffCmd, patchCmd, indexCmd}
	app.Before = func(ctx *cli.Context) error {
		consoleTarget.Enabled = !ctx.GlobalBool("quiet")
		consoleTarget.Verbose = ctx.GlobalBool("verbose")
		return nil
	}
	app.CommandNotFound = func(ctx *cli.Context, command string) {
		fmt.Fprintf(os.Stderr, "%s: unknown command %q. See 'bsdiff --help'.\n", app.Name, command)
	}
	return app
}

func parseFormatFlag(c *cli.Context, def string) bsdiff.Format {
	s := c.String("format")
	if s == "" {
		s = def
	}
	if s == "auto" {
		return bsdiff.FormatAuto
	}
	f, err := bsdiff.ParseFormat(s)
	logger.FatalIf(err, "invalid format %q", s)
	return f
}

func mainDiff(c *cli.Context) {
	if c.NArg() != 2 {
		cli.ShowCommandHelp(c, "diff")
		os.Exit(1)
	}
	oldPath, newPath := c.Args().Get(0), c.Args().Get(1)
	format := parseFormatFlag(c, "classic")

	var patchPath string
	var err error
	if indexPath := c.String("index"); indexPath != "" {
		patchPath, err = bsdiff.DiffWithIndex(oldPath, indexPath, newPath, c.String("out"), format)
	} else {
		patchPath, err = bsdiff.Diff(oldPath, newPath, c.String("out"), format)
	}
	logger.FatalIf(err, "diff failed")
	fmt.Println(color.GreenString("patch written to %s", patchPath))
}

func mainPatch(c *cli.Context) {
	if c.NArg() != 2 {
		cli.ShowCommandHelp(c, "patch")
		os.Exit(1)
	}
	oldPath, patchPath := c.Args().Get(0), c.Args().Get(1)
	format := parseFormatFlag(c, "auto")

	outPath, err := bsdiff.Patch(oldPath, patchPath, c.String("out"), format)
	logger.FatalIf(err, "patch failed")
	fmt.Println(color.GreenString("reconstructed file written to %s", outPath))
}

func mainIndex(c *cli.Context) {
	if c.NArg() != 1 {
		cli.ShowCommandHelp(c, "index")
		os.Exit(1)
	}
	oldPath := c.Args().Get(0)

	indexPath, err := bsdiff.Index(oldPath, c.String("out"))
	logger.FatalIf(err, "index failed")
	fmt.Println(color.GreenString("index written to %s", indexPath))
}

func main() {
	consoleTarget = logger.NewConsoleTarget()

	app := registerApp()
	if err := app.Run(os.Args); err != nil {
		logger.FatalIf(err, "bsdiff")
	}
}
