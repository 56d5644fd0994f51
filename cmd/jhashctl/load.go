package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/judy/jhash"
)

const stdIOPath = "-"

var cmdLoad = &cli.Command{
	Name:      "load",
	Usage:     "store every entry of a YAML mapping",
	ArgsUsage: `<file.yaml>`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "replace keys that already exist instead of skipping them",
		},
	},
	Action: withHash(runLoad),
}

var cmdDump = &cli.Command{
	Name:  "dump",
	Usage: "write every entry as a YAML mapping",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "file path to write to",
			Value:   stdIOPath,
		},
	},
	Action: withHash(runDump),
}

func getFileOrStdin(path string) (io.ReadCloser, error) {
	if path == stdIOPath {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func runLoad(cctx *cli.Context, s *session) error {
	path := cctx.Args().First()
	if path == "" {
		return fmt.Errorf("need to provide a YAML file (or '-') as an argument")
	}
	f, err := getFileOrStdin(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var entries map[string]any
	if err := yaml.NewDecoder(f).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	overwrite := cctx.Bool("overwrite")
	var loaded, skipped int
	for _, k := range keys {
		v, err := s.loadValue(k, entries[k])
		if err != nil {
			return err
		}
		if overwrite {
			err = s.hash.Insert(k, v)
		} else {
			err = s.hash.Create(k, v)
		}
		switch {
		case errors.Is(err, jhash.ErrAlreadyExists):
			skipped++
		case err != nil:
			return fmt.Errorf("store %q: %w", k, err)
		default:
			loaded++
		}
	}

	s.logger.Info("load complete", "path", path, "loaded", loaded, "skipped", skipped)
	fmt.Fprintf(s.out, "loaded %d, skipped %d\n", loaded, skipped)
	return nil
}

// loadValue converts a decoded YAML value to what the store accepts.
// Without --json only scalars can be stored, as text.
func (s *session) loadValue(key string, v any) (any, error) {
	if s.json {
		return v, nil
	}
	switch v := v.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("value of %q is not a scalar (use --json)", key)
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func runDump(cctx *cli.Context, s *session) error {
	out := s.out
	if path := cctx.String("output"); path != stdIOPath {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	entries := make(map[string]any, s.hash.Size())
	for k, v := range s.hash.All() {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		entries[k] = v
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
