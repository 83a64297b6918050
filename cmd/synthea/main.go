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
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

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
		"login": {
			name:        "login",
			description: "Sign in and store the session token",
			run:         runLogin,
		},
		"register": {
			name:        "register",
			description: "Create a new account",
			run:         runRegister,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and discard the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Verify the stored session and show the signed-in user",
			run:         runWhoami,
		},
		"generate": {
			name:        "generate",
			description: "Request a synthetic patient generation run",
			run:         runGenerate,
		},
		"runs": {
			name:        "runs",
			description: "List your generation runs",
			run:         runListRuns,
		},
		"delete-run": {
			name:        "delete-run",
			description: "Delete one of your generation runs",
			run:         runDeleteRun,
		},
		"download": {
			name:        "download",
			description: "Download the exported data of a run in one or more formats",
			run:         runDownload,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: synthea <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(os.Stdout, "  %-14s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func newApp(cmdCtx *commandContext, startView ports.View) (*bootstrap.App, error) {
	return bootstrap.NewApp(bootstrap.AppOptions{
		Config:    cmdCtx.Config,
		Logger:    cmdCtx.Logger,
		Err:       os.Stderr,
		StartView: startView,
	})
}

func closeApp(cmdCtx *commandContext, app *bootstrap.App) {
	if err := app.Close(); err != nil {
		cmdCtx.Logger.Warn("close app", "error", err)
	}
}

// requireAuthenticated runs the bootstrap verification and applies the
// authenticated-route guard. Bootstrap failures land unauthenticated rather
// than failing the command outright.
func requireAuthenticated(cmdCtx *commandContext, app *bootstrap.App) (domainauth.State, error) {
	state, err := app.Sessions.Initialize(cmdCtx.Ctx)
	if err != nil {
		cmdCtx.Logger.Info("session verification failed", "error", err)
	}

	decision := guard.Authenticated(state, app.TokenPresent())
	if decision == guard.DecisionRender {
		return state, nil
	}
	if view, ok := decision.Target(); ok {
		app.Navigator.NavigateTo(view)
	}
	return state, apperrors.Unauthenticated("not signed in; run 'synthea login' first")
}

type loginOptions struct {
	Username string
	Password string
}

func parseLoginFlags(name string, args []string) (loginOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts loginOptions
	fs.StringVar(&opts.Username, "username", "", "Account username")
	fs.StringVar(&opts.Password, "password", "", "Account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	if opts.Username == "" {
		return loginOptions{}, apperrors.ValidationField("username", "--username is required")
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags("login", args)
	if err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewLogin)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if hint, ok, hintErr := app.Store.RoleHint(); hintErr == nil && ok {
		if writeErr := writef(os.Stderr, "Last signed in with role %s\n", hint); writeErr != nil {
			return writeErr
		}
	}

	password := opts.Password
	if password == "" {
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}

	identity, err := app.Sessions.Login(cmdCtx.Ctx, opts.Username, password)
	if err != nil {
		if apperrors.IsInvalidCredentials(err) {
			return apperrors.InvalidCredentials("invalid username or password")
		}
		return err
	}

	return writef(os.Stdout, "Signed in as %s (%s)\n", identity.Username, identity.Role)
}

func runRegister(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags("register", args)
	if err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewLogin)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	password := opts.Password
	if password == "" {
		password, err = promptPassword("Choose a password: ")
		if err != nil {
			return err
		}
	}

	result, err := app.Sessions.Register(cmdCtx.Ctx, opts.Username, password)
	if err != nil {
		if apperrors.IsUsernameTaken(err) {
			return apperrors.UsernameTaken(fmt.Sprintf("username %q is already taken", opts.Username))
		}
		return err
	}

	// Registration does not sign the account in.
	return writef(os.Stdout, "Account %s created. Run 'synthea login' to sign in.\n", result.Identity.Username)
}

func runLogout(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return apperrors.Validation("logout takes no arguments")
	}

	app, err := newApp(cmdCtx, ports.ViewHome)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if err = app.Sessions.HandleLogout(); err != nil {
		return err
	}
	return writeln(os.Stdout, "Signed out.")
}

type whoamiOptions struct {
	Query string
	JSON  bool
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts whoamiOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON output")
	fs.BoolVar(&opts.JSON, "json", false, "Print the verified identity as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewHome)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	state, err := requireAuthenticated(cmdCtx, app)
	if err != nil {
		return err
	}

	if opts.JSON || opts.Query != "" {
		return printJSON(os.Stdout, state.User, opts.Query)
	}
	return writef(os.Stdout, "%s (%s)\n", state.User.Username, state.User.Role)
}

type generateOptions struct {
	Population int
	Gender     string
	MinAge     int
	MaxAge     int
	State      string
	City       string
}

func runGenerate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts generateOptions
	fs.IntVar(&opts.Population, "population", 0, "Number of synthetic patients to generate")
	fs.StringVar(&opts.Gender, "gender", "", "Patient gender: M, F, or ANY")
	fs.IntVar(&opts.MinAge, "min-age", 0, "Minimum patient age (set together with --max-age)")
	fs.IntVar(&opts.MaxAge, "max-age", 0, "Maximum patient age (set together with --min-age)")
	fs.StringVar(&opts.State, "state", "", "Federal state for the generated population")
	fs.StringVar(&opts.City, "city", "", "City for the generated population (requires --state)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewGenerate)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAuthenticated(cmdCtx, app); err != nil {
		return err
	}

	result, err := executeGenerate(cmdCtx.Ctx, app.API, model.GenerateParams{
		PopulationSize: opts.Population,
		Gender:         strings.ToUpper(opts.Gender),
		MinAge:         opts.MinAge,
		MaxAge:         opts.MaxAge,
		State:          opts.State,
		City:           opts.City,
	})
	if err != nil {
		return err
	}

	cmdCtx.Logger.Info("generation complete", "run_id", result.RunID)
	return writef(os.Stdout, "%s (run %s)\n", result.Message, result.RunID)
}

// generationAPI is the slice of the API client the generate flow needs.
type generationAPI interface {
	Generate(ctx context.Context, params model.GenerateParams) (model.GenerateResult, error)
	SaveRun(ctx context.Context, run model.Run) error
}

// executeGenerate requests a generation run and records its metadata so the
// run appears in subsequent listings. The server assigns the creation time.
func executeGenerate(ctx context.Context, api generationAPI, params model.GenerateParams) (model.GenerateResult, error) {
	result, err := api.Generate(ctx, params)
	if err != nil {
		return model.GenerateResult{}, err
	}

	run := model.Run{
		RunID:          result.RunID,
		State:          params.State,
		City:           params.City,
		Gender:         params.Gender,
		PopulationSize: params.PopulationSize,
		MinAge:         params.MinAge,
		MaxAge:         params.MaxAge,
	}
	if err := api.SaveRun(ctx, run); err != nil {
		return result, fmt.Errorf("save run metadata for %s: %w", result.RunID, err)
	}
	return result, nil
}

type listRunsOptions struct {
	Query string
	JSON  bool
}

func runListRuns(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listRunsOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON output")
	fs.BoolVar(&opts.JSON, "json", false, "Print runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewRuns)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAuthenticated(cmdCtx, app); err != nil {
		return err
	}

	runs, err := app.API.UserRuns(cmdCtx.Ctx)
	if err != nil {
		return err
	}

	if opts.JSON || opts.Query != "" {
		return printJSON(os.Stdout, runs, opts.Query)
	}
	return printRunTable(os.Stdout, runs)
}

func printRunTable(out io.Writer, runs []model.Run) error {
	if len(runs) == 0 {
		return writeln(out, "No runs yet.")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Run ID\tCreated\tState\tCity\tGender\tPopulation\tAges"); err != nil {
		return err
	}
	for _, run := range runs {
		gender := run.Gender
		if gender == "" {
			gender = model.GenderAny
		}
		err := writef(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
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

func runDeleteRun(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("delete-run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var runID string
	var yes bool
	fs.StringVar(&runID, "run", "", "Run ID to delete")
	fs.BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if runID == "" {
		return apperrors.ValidationField("run", "--run is required")
	}

	app, err := newApp(cmdCtx, ports.ViewRuns)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAuthenticated(cmdCtx, app); err != nil {
		return err
	}

	if !yes {
		confirmed, confirmErr := confirm(fmt.Sprintf("Delete run %s? [y/N]: ", runID))
		if confirmErr != nil {
			return confirmErr
		}
		if !confirmed {
			return writeln(os.Stdout, "Aborted.")
		}
	}

	if err = app.API.DeleteRun(cmdCtx.Ctx, runID); err != nil {
		return err
	}
	return writef(os.Stdout, "Run %s deleted.\n", runID)
}

type downloadOptions struct {
	RunID   string
	Formats string
	OutDir  string
}

func runDownload(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts downloadOptions
	fs.StringVar(&opts.RunID, "run", "", "Run ID to download")
	fs.StringVar(&opts.Formats, "format", "csv", "Export formats, comma separated (csv, fhir)")
	fs.StringVar(&opts.OutDir, "out", ".", "Directory the archives are written to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.RunID == "" {
		return apperrors.ValidationField("run", "--run is required")
	}

	formats, err := parseFormats(opts.Formats)
	if err != nil {
		return err
	}

	app, err := newApp(cmdCtx, ports.ViewRuns)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if _, err = requireAuthenticated(cmdCtx, app); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, cmdCtx.Config.API.DownloadTimeout)
	defer cancel()

	// Formats are independent server-side exports; fetch them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		format := format
		g.Go(func() error {
			name := filepath.Join(opts.OutDir, fmt.Sprintf("%s-%s.zip", opts.RunID, format))
			n, downloadErr := downloadToFile(gctx, app, opts.RunID, format, name)
			if downloadErr != nil {
				return fmt.Errorf("download %s: %w", format, downloadErr)
			}
			cmdCtx.Logger.Info("download complete", "run_id", opts.RunID, "format", format, "bytes", n)
			return writef(os.Stdout, "Wrote %s (%d bytes)\n", name, n)
		})
	}
	return g.Wait()
}

func parseFormats(raw string) ([]model.DownloadFormat, error) {
	parts := strings.Split(raw, ",")
	formats := make([]model.DownloadFormat, 0, len(parts))
	seen := make(map[model.DownloadFormat]bool)
	for _, part := range parts {
		format, err := model.ParseDownloadFormat(strings.ToLower(strings.TrimSpace(part)))
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, apperrors.ValidationField("format", "at least one format is required")
	}
	return formats, nil
}

func downloadToFile(ctx context.Context, app *bootstrap.App, runID string, format model.DownloadFormat, name string) (int64, error) {
	f, err := os.Create(name)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := app.API.Download(ctx, runID, format, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", name, closeErr)
	}
	if err != nil {
		_ = os.Remove(name)
		return n, err
	}
	return n, nil
}

func promptPassword(prompt string) (string, error) {
	if err := write(os.Stderr, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", apperrors.ValidationField("password", "password must not be empty")
	}
	return password, nil
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
