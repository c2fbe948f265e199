// Command taponn-cli drives the account lifecycle against a TapOnn API
// server from the terminal: register, login, inspect and update the
// current account, and logout. The bearer token persists between runs in
// the configured token file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/taponn/taponn-api/config"
	"github.com/taponn/taponn-api/internal/adapters/credstore"
	"github.com/taponn/taponn-api/internal/bootstrap"
	"github.com/taponn/taponn-api/internal/client/authapi"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/session"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx     context.Context
	Logger  *slog.Logger
	Config  config.AppConfig
	Session *session.Manager
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	mgr, err := buildSession(cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "build session", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI cannot proceed without a session manager
	}

	cmdCtx := &commandContext{
		Ctx:     ctx,
		Logger:  logger,
		Config:  cfg,
		Session: mgr,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must surface command failures to the shell
	}
}

// buildSession wires the session manager over the remote auth client and
// the on-disk token store.
func buildSession(cfg config.AppConfig, logger *slog.Logger) (*session.Manager, error) {
	tokens, err := credstore.NewFile(cfg.Client.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	api, err := authapi.NewClient(authapi.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth client: %w", err)
	}

	obs := bootstrap.BuildObservability(logger, cfg.Observability)

	return session.NewManager(session.Config{
		API:      api,
		Tokens:   tokens,
		DemoMode: cfg.DemoMode,
		Notifier: obs.Notifier,
		Metrics:  obs.MetricsSink,
		Logger:   logger,
	}), nil
}

func commands() map[string]command {
	cmds := []command{
		{name: "register", description: "Create an account and start a session", run: runRegister},
		{name: "login", description: "Authenticate and store the session token", run: runLogin},
		{name: "me", description: "Show the currently authenticated account", run: runMe},
		{name: "update", description: "Update account details", run: runUpdate},
		{name: "logout", description: "End the session and remove the stored token", run: runLogout},
	}

	m := make(map[string]command, len(cmds))
	for _, c := range cmds {
		m[c.name] = c
	}
	return m
}

func printUsage() error {
	if err := writef(os.Stderr, "usage: taponn-cli <command> [flags]\n\ncommands:\n"); err != nil {
		return err
	}

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		if err := writef(tw, "  %s\t%s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func runRegister(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name (required)")
	email := fs.String("email", "", "email address (required)")
	password := fs.String("password", "", "password (required)")
	phone := fs.String("phone", "", "phone number")
	company := fs.String("company", "", "company name")
	position := fs.String("position", "", "job title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("register requires -email and -password")
	}

	res := ctx.Session.Register(ctx.Ctx, domainauth.Registration{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Phone:    *phone,
		Company:  *company,
		Position: *position,
	})
	if res.Err != nil {
		return res.Err
	}
	return printCurrentUser(ctx)
}

func runLogin(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address (required)")
	password := fs.String("password", "", "password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	res := ctx.Session.Login(ctx.Ctx, domainauth.Credentials{
		Email:    *email,
		Password: *password,
	})
	if res.Err != nil {
		return res.Err
	}
	return printCurrentUser(ctx)
}

func runMe(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("me", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx.Session.Initialize(ctx.Ctx)
	if !ctx.Session.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	return printCurrentUser(ctx)
}

func runUpdate(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	name := fs.String("name", "", "new full name")
	email := fs.String("email", "", "new email address")
	phone := fs.String("phone", "", "new phone number")
	company := fs.String("company", "", "new company name")
	position := fs.String("position", "", "new job title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	patch := domainauth.AccountUpdate{
		Name:     optional(*name),
		Email:    optional(*email),
		Phone:    optional(*phone),
		Company:  optional(*company),
		Position: optional(*position),
	}
	if patch == (domainauth.AccountUpdate{}) {
		return fmt.Errorf("update requires at least one field flag")
	}

	ctx.Session.Initialize(ctx.Ctx)
	res := ctx.Session.UpdateProfile(ctx.Ctx, patch)
	if res.Err != nil {
		return res.Err
	}
	return printCurrentUser(ctx)
}

func runLogout(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx.Session.Logout(ctx.Ctx)
	return nil
}

func printCurrentUser(ctx *commandContext) error {
	user, ok := ctx.Session.CurrentUser()
	if !ok {
		return fmt.Errorf("no authenticated user")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(tw, "id\t%s\nname\t%s\nemail\t%s\nrole\t%s\n",
		user.ID, user.Name, user.Email, user.Role); err != nil {
		return err
	}
	return tw.Flush()
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
