// jhashctl inspects and edits a jhash store from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/jacentio/judy/jhash"
)

func main() {
	if err := run(os.Args); err != nil {
		switch {
		case errors.Is(err, jhash.ErrNotFound):
			fmt.Fprintln(os.Stderr, "not found")
		case errors.Is(err, jhash.ErrAlreadyExists):
			fmt.Fprintln(os.Stderr, "already exists")
		default:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "jhashctl",
		Usage:   "ordered string-keyed store CLI",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "directory of the pebble database",
				Value:   "jhash.db",
				EnvVars: []string{"JHASH_DB"},
			},
			&cli.StringFlag{
				Name:    "dynamo-table",
				Usage:   "use this DynamoDB table instead of a local database",
				EnvVars: []string{"JHASH_DYNAMO_TABLE"},
			},
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "namespace within the DynamoDB table",
				Value:   "default",
				EnvVars: []string{"JHASH_NAMESPACE"},
			},
			&cli.IntFlag{
				Name:    "shards",
				Usage:   "number of DynamoDB partitions keys are spread across",
				Value:   1,
				EnvVars: []string{"JHASH_SHARDS"},
			},
			&cli.DurationFlag{
				Name:    "ttl",
				Usage:   "expire DynamoDB writes after this long (0 keeps them)",
				EnvVars: []string{"JHASH_TTL"},
			},
			&cli.BoolFlag{
				Name:    "json",
				Usage:   "treat values as JSON documents",
				EnvVars: []string{"JHASH_JSON"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (error, warn, info, debug)",
				Value:   "warn",
				EnvVars: []string{"JHASH_LOG_LEVEL", "LOG_LEVEL"},
			},
		},
	}
	app.Commands = []*cli.Command{
		cmdGet,
		cmdSet,
		cmdCreate,
		cmdUpdate,
		cmdDel,
		cmdLs,
		cmdCount,
		cmdLoad,
		cmdDump,
		cmdInitTable,
	}
	return app
}
