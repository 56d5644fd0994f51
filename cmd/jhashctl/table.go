package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/judy/engine/dynamo"
)

var cmdInitTable = &cli.Command{
	Name:  "init-table",
	Usage: "create the DynamoDB table named by --dynamo-table",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "how long to wait for the table to become active",
			Value: 2 * time.Minute,
		},
	},
	Action: runInitTable,
}

func runInitTable(cctx *cli.Context) error {
	table := cctx.String("dynamo-table")
	if table == "" {
		return fmt.Errorf("--dynamo-table is required")
	}
	logger := configLogger(cctx, cctx.App.ErrWriter)

	client, err := dynamoClient(cctx)
	if err != nil {
		return err
	}
	if err := dynamo.CreateTable(cctx.Context, client, table, cctx.Duration("wait")); err != nil {
		return err
	}
	logger.Info("table ready", "table", table)
	fmt.Fprintf(cctx.App.Writer, "created %s\n", table)
	return nil
}
