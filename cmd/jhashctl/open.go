package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/jacentio/judy/engine/dynamo"
	"github.com/jacentio/judy/engine/pebblekv"
	"github.com/jacentio/judy/jhash"
)

// session is the open store a command works on.
type session struct {
	hash   *jhash.Hash
	json   bool
	out    io.Writer
	logger *slog.Logger
}

// withHash opens the configured store around action and frees it after.
func withHash(action func(cctx *cli.Context, s *session) error) cli.ActionFunc {
	return func(cctx *cli.Context) (err error) {
		logger := configLogger(cctx, cctx.App.ErrWriter)

		engine, err := openEngine(cctx)
		if err != nil {
			return err
		}
		h := jhash.New(engine, jhash.Config{
			ErrorPolicy: jhash.LogPolicy(logger),
			Logger:      logger,
		})
		defer func() {
			if ferr := h.Free(); ferr != nil && err == nil {
				err = ferr
			}
		}()

		return action(cctx, &session{
			hash:   h,
			json:   cctx.Bool("json"),
			out:    cctx.App.Writer,
			logger: logger,
		})
	}
}

func openEngine(cctx *cli.Context) (jhash.Engine, error) {
	if table := cctx.String("dynamo-table"); table != "" {
		client, err := dynamoClient(cctx)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, dynamo.Config{
			Table:     table,
			Namespace: cctx.String("namespace"),
			NumShards: cctx.Int("shards"),
			TTL:       cctx.Duration("ttl"),
		}), nil
	}

	cfg := pebblekv.DefaultConfig()
	if cctx.Bool("json") {
		cfg.Codec = pebblekv.JSONCodec{}
	}
	e, err := pebblekv.Open(cctx.String("db"), cfg)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func dynamoClient(cctx *cli.Context) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(cctx.Context)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelWarn
	}

	noColor := true
	if f, ok := writer.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		writer = colorable.NewColorable(f)
	}
	logger := slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)
	return logger
}

// parseValue turns a command line argument into a value to store.
func (s *session) parseValue(arg string) (any, error) {
	if !s.json {
		return arg, nil
	}
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return nil, fmt.Errorf("parse JSON value: %w", err)
	}
	return v, nil
}

// formatValue renders a stored value for output.
func (s *session) formatValue(v any) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		if !s.json {
			return v
		}
	case nil:
		if !s.json {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
