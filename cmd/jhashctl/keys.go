package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/judy/jhash"
)

var cmdGet = &cli.Command{
	Name:      "get",
	Usage:     "print the value stored under a key",
	ArgsUsage: `<key>`,
	Action:    withHash(runGet),
}

var cmdSet = &cli.Command{
	Name:      "set",
	Usage:     "store a value, replacing any existing one",
	ArgsUsage: `<key> <value>`,
	Action:    withHash(runSet),
}

var cmdCreate = &cli.Command{
	Name:      "create",
	Usage:     "store a value only if the key is absent",
	ArgsUsage: `<key> <value>`,
	Action:    withHash(runCreate),
}

var cmdUpdate = &cli.Command{
	Name:      "update",
	Usage:     "replace the value of an existing key",
	ArgsUsage: `<key> <value>`,
	Action:    withHash(runUpdate),
}

var cmdDel = &cli.Command{
	Name:      "del",
	Aliases:   []string{"rm"},
	Usage:     "remove a key",
	ArgsUsage: `<key>`,
	Action:    withHash(runDel),
}

var cmdCount = &cli.Command{
	Name:   "count",
	Usage:  "print the number of keys",
	Action: withHash(runCount),
}

var cmdLs = &cli.Command{
	Name:    "ls",
	Aliases: []string{"list"},
	Usage:   "list keys in order",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "start at this key (or the nearest one in walk direction)",
		},
		&cli.BoolFlag{
			Name:    "reverse",
			Aliases: []string{"r"},
			Usage:   "walk keys in descending order",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "stop after this many keys (0 lists all)",
		},
		&cli.BoolFlag{
			Name:    "values",
			Aliases: []string{"l"},
			Usage:   "print values next to keys",
		},
	},
	Action: withHash(runLs),
}

func runGet(cctx *cli.Context, s *session) error {
	if cctx.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one key")
	}
	v, err := s.hash.Get(cctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, s.formatValue(v))
	return nil
}

func keyValueArgs(cctx *cli.Context, s *session) (string, any, error) {
	if cctx.Args().Len() != 2 {
		return "", nil, fmt.Errorf("expected a key and a value")
	}
	v, err := s.parseValue(cctx.Args().Get(1))
	if err != nil {
		return "", nil, err
	}
	return cctx.Args().First(), v, nil
}

func runSet(cctx *cli.Context, s *session) error {
	key, v, err := keyValueArgs(cctx, s)
	if err != nil {
		return err
	}
	return s.hash.Insert(key, v)
}

func runCreate(cctx *cli.Context, s *session) error {
	key, v, err := keyValueArgs(cctx, s)
	if err != nil {
		return err
	}
	return s.hash.Create(key, v)
}

func runUpdate(cctx *cli.Context, s *session) error {
	key, v, err := keyValueArgs(cctx, s)
	if err != nil {
		return err
	}
	return s.hash.Update(key, v)
}

func runDel(cctx *cli.Context, s *session) error {
	if cctx.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one key")
	}
	return s.hash.Delete(cctx.Args().First())
}

func runCount(cctx *cli.Context, s *session) error {
	fmt.Fprintln(s.out, s.hash.Size())
	return nil
}

func runLs(cctx *cli.Context, s *session) error {
	reverse := cctx.Bool("reverse")
	limit := cctx.Int("limit")

	var it *jhash.Iter
	if reverse {
		it = s.hash.IterFromEnd(cctx.String("from"))
	} else {
		it = s.hash.IterFromStart(cctx.String("from"))
	}
	defer it.Close()

	for n := 0; it.Valid() && (limit <= 0 || n < limit); n++ {
		if cctx.Bool("values") {
			fmt.Fprintf(s.out, "%s\t%s\n", it.Key(), s.formatValue(it.Value()))
		} else {
			fmt.Fprintln(s.out, it.Key())
		}
		if reverse {
			it.Prev()
		} else {
			it.Next()
		}
	}
	return it.Err()
}
