package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/syntheaweb/synthea-client/config"
	"github.com/syntheaweb/synthea-client/internal/bootstrap"
	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/domain/model"
	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
	"github.com/syntheaweb/synthea-client/internal/guard"
	"github.com/syntheaweb/synthea-client/internal/ports"
	"github.com/syntheaweb/synthea-client/internal/util"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
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

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"users": {
			name:        "users",
			description: "List all user accounts",
			run:         runListUsers,
		},
		"delete-user": {
			name:        "delete-user",
			description: "Delete a user account",
			run:         runDeleteUser,
		},
		"reset-password": {
			name:        "reset-password",
			description: "Set a new password for a user account",
			run:         runResetPassword,
		},
		"set-role": {
			name:        "set-role",
			description: "Assign a role (USER or ADMIN) to a user account",
			run:         runSetRole,
		},
		"all-runs": {
			name:        "all-runs",
			description: "List every generation run in the system",
			run:         runAllRuns,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: synthea-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(os.Stdout, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

// requireAdmin runs the bootstrap verification and applies the admin-route
// guard. The role comes from the verified identity, never the stored hint.
func requireAdmin(cmdCtx *commandContext, app *bootstrap.App) (domainauth.State, error) {
	state, err := app.Sessions.Initialize(cmdCtx.Ctx)
	if err != nil {
		cmdCtx.Logger.Info("session verification failed", "error", err)
	}

	if authDecision := guard.Authenticated(state, app.TokenPresent()); authDecision != guard.DecisionRender {
		if view, ok := authDecision.Target(); ok {
			app.Navigator.NavigateTo(view)
		}
		return state, apperrors.Unauthenticated("not signed in; run 'synthea login' first")
	}

	decision := guard.Admin(state)
	if decision == guard.DecisionRender {
		return state, nil
	}
	if view, ok := decision.Target(); ok {
		app.Navigator.NavigateTo(view)
	}
	return state, apperrors.Unauthenticated("admin role required")
}

func newApp(cmdCtx *commandContext) (*bootstrap.App, error) {
	return bootstrap.NewApp(bootstrap.AppOptions{
		Config:    cmdCtx.Config,
		Logger:    cmdCtx.Logger,
		Err:       os.Stderr,
		StartView: ports.ViewAdmin,
	})
}

func closeApp(cmdCtx *commandContext, app *bootstrap.App) {
	if err := app.Close(); err != nil {
		cmdCtx.Logger.Warn("close app", "error", err)
	}
}

type listUsersOptions struct {
	Query string
	JSON  bool
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listUsersOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON output")
	fs.BoolVar(&opts.JSON, "json", false, "Print users as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAdmin(cmdCtx, app); err != nil {
		return err
	}

	users, err := app.API.Users(cmdCtx.Ctx)
	if err != nil {
		return err
	}

	if opts.JSON || opts.Query != "" {
		return printJSON(os.Stdout, users, opts.Query)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err = writeln(w, "ID\tUsername\tRole"); err != nil {
		return err
	}
	for _, user := range users {
		if err = writef(w, "%s\t%s\t%s\n", user.ID, user.Username, user.Role); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runDeleteUser(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var userID string
	var yes bool
	fs.StringVar(&userID, "user", "", "User ID to delete")
	fs.BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return apperrors.ValidationField("user", "--user is required")
	}

	app, err := newApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	state, err := requireAdmin(cmdCtx, app)
	if err != nil {
		return err
	}
	if state.User != nil && state.User.ID == userID {
		return apperrors.Validation("refusing to delete the account you are signed in with")
	}

	if !yes {
		confirmed, confirmErr := confirm(fmt.Sprintf("Delete user %s? [y/N]: ", userID))
		if confirmErr != nil {
			return confirmErr
		}
		if !confirmed {
			return writeln(os.Stdout, "Aborted.")
		}
	}

	if err = app.API.DeleteUser(cmdCtx.Ctx, userID); err != nil {
		return err
	}
	cmdCtx.Logger.Info("user deleted", "user_id", userID)
	return writef(os.Stdout, "User %s deleted.\n", userID)
}

func runResetPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var userID, password string
	fs.StringVar(&userID, "user", "", "User ID whose password is reset")
	fs.StringVar(&password, "password", "", "New password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return apperrors.ValidationField("user", "--user is required")
	}

	app, err := newApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAdmin(cmdCtx, app); err != nil {
		return err
	}

	if password == "" {
		password, err = promptLine("New password: ")
		if err != nil {
			return err
		}
	}

	if err = app.API.ResetPassword(cmdCtx.Ctx, userID, password); err != nil {
		return err
	}
	cmdCtx.Logger.Info("password reset", "user_id", userID)
	return writef(os.Stdout, "Password for user %s updated.\n", userID)
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var userID, role string
	fs.StringVar(&userID, "user", "", "User ID whose role is changed")
	fs.StringVar(&role, "role", "", "New role: USER or ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return apperrors.ValidationField("user", "--user is required")
	}
	role = strings.ToUpper(role)
	if role != string(domainauth.RoleUser) && role != string(domainauth.RoleAdmin) {
		return apperrors.ValidationField("role", "role must be USER or ADMIN")
	}

	app, err := newApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	state, err := requireAdmin(cmdCtx, app)
	if err != nil {
		return err
	}
	if state.User != nil && state.User.ID == userID && role != string(domainauth.RoleAdmin) {
		return apperrors.Validation("refusing to demote the account you are signed in with")
	}

	if err = app.API.UpdateRole(cmdCtx.Ctx, userID, role); err != nil {
		return err
	}
	cmdCtx.Logger.Info("role updated", "user_id", userID, "role", role)
	return writef(os.Stdout, "User %s is now %s.\n", userID, role)
}

type allRunsOptions struct {
	Query string
	JSON  bool
}

func runAllRuns(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("all-runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts allRunsOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON output")
	fs.BoolVar(&opts.JSON, "json", false, "Print runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAdmin(cmdCtx, app); err != nil {
		return err
	}

	runs, err := app.API.AllRuns(cmdCtx.Ctx)
	if err != nil {
		return err
	}

	if opts.JSON || opts.Query != "" {
		return printJSON(os.Stdout, runs, opts.Query)
	}

	if len(runs) == 0 {
		return writeln(os.Stdout, "No runs in the system.")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err = writeln(w, "Run ID\tCreated\tState\tCity\tGender\tPopulation\tAges"); err != nil {
		return err
	}
	for _, run := range runs {
		gender := run.Gender
		if gender == "" {
			gender = model.GenderAny
		}
		err = writef(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.RunID,
			util.FormatCreatedAt(run.CreatedAt),
			run.State,
			run.City,
			gender,
			run.PopulationSize,
			util.FormatAgeRange(run.MinAge, run.MaxAge),
		)
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

func promptLine(prompt string) (string, error) {
	if err := write(os.Stderr, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", apperrors.Validation("input must not be empty")
	}
	return value, nil
}

func confirm(prompt string) (bool, error) {
	if err := write(os.Stdout, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(os.Stdin)
	resp, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	return resp == "y" || resp == "yes", nil
}

func printJSON(out io.Writer, data any, query string) error {
	value := data
	if query != "" {
		result, err := util.Query(query, data)
		if err != nil {
			return err
		}
		value = result
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
