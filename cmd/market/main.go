// Command market is a terminal client for the marketplace.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/config"
	"github.com/sudo-init-do/marketfront/internal/logging"
	"github.com/sudo-init-do/marketfront/internal/redisx"
	"github.com/sudo-init-do/marketfront/internal/refdata"
	"github.com/sudo-init-do/marketfront/internal/session"
)

type app struct {
	cfg     *config.Config
	log     *slog.Logger
	api     *api.Client
	store   *session.Store
	refdata *refdata.Service

	in  *bufio.Reader
	out io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"login --email E [--password P]", cmdLogin},
	"logout":        {"logout", cmdLogout},
	"whoami":        {"whoami", cmdWhoami},
	"signup":        {"signup --email E --nickname N [--verification-id ID]", cmdSignup},
	"products":      {"products [--keyword K] [--area A] [--category C] [--min-price N] [--max-price N] [--page N] [--local]", cmdProducts},
	"product":       {"product <id>", cmdProduct},
	"register":      {"register --title T --price P --category C --area A [--description D] [--image URL]...", cmdRegister},
	"dibs":          {"dibs", cmdDibs},
	"dib":           {"dib <productId>", cmdDib},
	"areas":         {"areas", cmdAreas},
	"categories":    {"categories", cmdCategories},
	"chats":         {"chats", cmdChats},
	"chat":          {"chat <chatId> | chat --product <productId>", cmdChat},
	"notifications": {"notifications", cmdNotifications},
	"report":        {"report --user ID [--product ID] --reason R [--detail D]", cmdReport},
	"admin":         {"admin users [--page N] | admin reports | admin status <userId> ACTIVE|SUSPENDED", cmdAdmin},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: market [global flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
}

func main() {
	global := pflag.NewFlagSet("market", pflag.ContinueOnError)
	global.SetInterspersed(false)
	config.RegisterFlags(global, "backend_url", "chat_url", "token_file", "log_level")
	if err := global.Parse(os.Args[1:]); err != nil {
		usage(os.Stderr)
		os.Exit(2)
	}
	args := global.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage(os.Stderr)
		os.Exit(2)
	}

	a, cleanup, err := newApp(global)
	if err != nil {
		fmt.Fprintln(os.Stderr, "market:", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		cleanup()
		os.Exit(1)
	}
}

func newApp(fs *pflag.FlagSet) (*app, func(), error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return nil, nil, err
	}
	// stdout belongs to the command output
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
		cfg.Log.Format = "text"
		if !fs.Changed("log-level") && os.Getenv(config.EnvPrefix+"_LOG_LEVEL") == "" {
			cfg.Log.Level = "warn"
		}
	}
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	store := session.NewStore(session.FileStore{Path: cfg.TokenFile})
	if err := store.Init(); err != nil {
		logger.Warn("could not restore session", "error", err)
	}

	client := api.New(api.Options{BaseURL: cfg.BackendURL, Timeout: cfg.HTTPTimeout, Logger: logger})

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
	}
	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = logCloser.Close()
	}
	return &app{
		cfg:     cfg,
		log:     logger,
		api:     client,
		store:   store,
		refdata: refdata.NewService(client, rdb, cfg.RefdataTTL, logger),
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, cleanup, nil
}

// identity returns the logged-in user or api.ErrUnauthenticated.
func (a *app) identity() (session.Identity, error) {
	id, ok := a.store.Current()
	if !ok {
		return session.Identity{}, api.ErrUnauthenticated
	}
	return id, nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// describe turns an error into the one line shown to the user.
func describe(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return api.Message(err) + " (market login --email ...)"
	case errors.Is(err, api.ErrNotFound):
		return "Not found."
	case errors.As(err, &apiErr):
		return api.Message(err)
	}
	return err.Error()
}
