// Package salaryctl is the command line front end of the salary API: it
// prints the catalog, builds structures through the wizard and lists slips.
package salaryctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"unifiedpro/internal/client"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/domain/slip"
	"unifiedpro/internal/platform/logging"
	"unifiedpro/internal/platform/money"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// API is the part of the salary API the commands use.
type API interface {
	salary.Submitter
	Catalog(ctx context.Context, profileID string) (catalog.Catalog, error)
	DetailedProfile(ctx context.Context, profileID string) (profile.DetailedProfile, error)
	Preview(ctx context.Context, req salary.SubmitRequest) (salary.Totals, error)
	ListSlips(ctx context.Context, f slip.Filter) (client.SlipList, error)
	SlipSummary(ctx context.Context) (slip.Summary, error)
}

type App struct {
	API API
	In  io.Reader
	Out io.Writer
	Err io.Writer
	Log *zap.Logger
}

const usage = `usage: salaryctl [--config file] [--server url] <command> [flags]

commands:
  catalog     print the catalog snapshot
  structure   create, edit or preview a salary structure
  slips       list salary slips with their summary
`

// Main parses global flags, builds the API client and runs one command.
// It returns the process exit code.
func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("salaryctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { fmt.Fprint(errOut, usage) }
	configPath := fs.String("config", "", "path to configuration file (default ~/.salaryctl.yaml)")
	server := fs.String("server", "", "API base URL override")
	logLevel := fs.String("log-level", "", "log level override (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, "salaryctl:", err)
		return exitError
	}
	if *server != "" {
		cfg.Server = strings.TrimRight(*server, "/")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.New("development", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(errOut, "salaryctl:", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	app := &App{
		API: client.New(cfg.Client(), logger),
		In:  in,
		Out: out,
		Err: errOut,
		Log: logger,
	}
	return app.Run(ctx, fs.Args())
}

// Run dispatches one command.
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if len(args) == 0 {
		fmt.Fprint(a.Err, usage)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "catalog":
		err = a.runCatalog(ctx, args[1:])
	case "structure":
		err = a.runStructure(ctx, args[1:])
	case "slips":
		err = a.runSlips(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.Out, usage)
		return exitOK
	default:
		fmt.Fprintf(a.Err, "salaryctl: unknown command %q\n", args[0])
		fmt.Fprint(a.Err, usage)
		return exitUsage
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		a.Log.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintln(a.Err, "salaryctl:", describe(err))
		return exitError
	}
}

var errUsage = errors.New("usage")

// describe turns an error into the line shown to the operator.
func describe(err error) string {
	if salary.IsGateError(err) {
		return salary.UserMessage(err)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		var submitErr *salary.SubmitError
		if errors.As(err, &submitErr) {
			return salary.UserMessage(err) + ": " + apiErr.Message
		}
		return apiErr.Message + " (" + apiErr.Code + ")"
	}
	return err.Error()
}

func (a *App) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// parse reports any flag error as a usage error; the flag set has already
// printed it.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func (a *App) runCatalog(ctx context.Context, args []string) error {
	fs := a.newFlags("catalog")
	profileID := fs.String("profile", "", "basic profile whose current amounts to include")
	if err := parse(fs, args); err != nil {
		return err
	}

	snapshot, err := a.API.Catalog(ctx, *profileID)
	if err != nil {
		return err
	}
	printCatalog(a.Out, snapshot)
	return nil
}

func printCatalog(out io.Writer, c catalog.Catalog) {
	fmt.Fprintf(out, "Catalog version %d (%s)\n", c.Version, c.Currency)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nPAY GRADE\tID\tRANGE")
	for _, g := range c.PayGrades {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Name, g.ID, g.Range)
	}
	fmt.Fprintln(tw, "\nCOMPONENT\tID\tCATEGORY\tCURRENT")
	for _, comp := range c.Components {
		current := "-"
		if comp.Current.Present {
			current = "null"
			if comp.Current.Value != nil {
				current = money.Format(*comp.Current.Value, c.Currency)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", comp.Name, comp.ID, comp.Category, current)
	}
	fmt.Fprintln(tw, "\nPAY FREQUENCY\tID")
	for _, f := range c.PayFrequencies {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.ID)
	}
	fmt.Fprintln(tw, "\nDEDUCTION\tID\tPERCENTAGE")
	for _, d := range c.Deductions {
		fmt.Fprintf(tw, "%s\t%s\t%g%%\n", d.Name, d.ID, d.Percentage)
	}
	fmt.Fprintln(tw, "\nEMPLOYEE\tPROFILE\tDEPARTMENT\tSTRUCTURE")
	for _, p := range c.BasicProfiles {
		structure := "no"
		if p.HasStructure {
			structure = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.EmployeeName, p.ID, p.Department, structure)
	}
	_ = tw.Flush()
}

// listFlag collects a repeated string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type componentAmount struct {
	id  string
	raw string
}

// componentFlag collects repeated id=amount pairs. A bare id keeps the
// amount the wizard already has.
type componentFlag []componentAmount

func (c *componentFlag) String() string {
	parts := make([]string, 0, len(*c))
	for _, item := range *c {
		parts = append(parts, item.id+"="+item.raw)
	}
	return strings.Join(parts, ",")
}

func (c *componentFlag) Set(v string) error {
	id, raw, _ := strings.Cut(v, "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("component %q has no id", v)
	}
	*c = append(*c, componentAmount{id: id, raw: raw})
	return nil
}

func (a *App) runStructure(ctx context.Context, args []string) error {
	fs := a.newFlags("structure")
	employee := fs.String("employee", "", "basic profile id")
	edit := fs.Bool("edit", false, "edit the existing structure of --employee")
	payGrade := fs.String("pay-grade", "", "pay grade id")
	payFrequency := fs.String("pay-frequency", "", "pay frequency id")
	currency := fs.String("currency", "", "ISO 4217 currency code")
	yes := fs.Bool("yes", false, "save without asking")
	preview := fs.Bool("preview", false, "print the totals computed by the server and save nothing")
	var components componentFlag
	var deductions listFlag
	fs.Var(&components, "component", "component as id=amount; repeatable")
	fs.Var(&deductions, "deduction", "deduction id to apply; repeatable")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*employee) == "" {
		fmt.Fprintln(a.Err, "salaryctl structure: --employee is required")
		return errUsage
	}

	w, err := a.openWizard(ctx, *employee, *edit)
	if err != nil {
		return err
	}
	if err := configure(w, components, *payGrade, *payFrequency, deductions, *currency); err != nil {
		return err
	}
	if err := w.Next(); err != nil {
		return err
	}

	printReview(a.Out, w)
	if *preview {
		totals, err := a.API.Preview(ctx, w.Request())
		if err != nil {
			return err
		}
		printServerTotals(a.Out, totals, w.Configuration().Currency)
		w.Cancel()
		fmt.Fprintln(a.Out, "Preview only, nothing saved.")
		return nil
	}
	if !*yes && !a.confirm() {
		w.Cancel()
		fmt.Fprintln(a.Out, "Cancelled, nothing saved.")
		return nil
	}

	res, err := w.Confirm(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, res.Message)
	if res.Stale {
		fmt.Fprintln(a.Out, "Note: the catalog changed while this structure was being built.")
	}
	return nil
}

func (a *App) openWizard(ctx context.Context, profileID string, edit bool) (*salary.Wizard, error) {
	if !edit {
		snapshot, err := a.API.Catalog(ctx, "")
		if err != nil {
			return nil, err
		}
		w := salary.NewWizard(snapshot, a.API)
		if err := w.SelectEmployee(profileID); err != nil {
			return nil, fmt.Errorf("%s: %w", profileID, err)
		}
		if err := w.Next(); err != nil {
			return nil, err
		}
		return w, nil
	}

	snapshot, err := a.API.Catalog(ctx, profileID)
	if err != nil {
		return nil, err
	}
	detail, err := a.API.DetailedProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return salary.NewEditWizard(snapshot, detail, a.API)
}

// configure applies the command line choices. Listed components replace
// the initial selection; listed deductions are added to what is applied.
func configure(w *salary.Wizard, components componentFlag, payGrade, payFrequency string, deductions []string, currency string) error {
	if len(components) > 0 {
		keep := map[string]bool{}
		for _, c := range components {
			keep[c.id] = true
		}
		for _, selected := range w.Configuration().SelectedComponents {
			if keep[selected.ID] {
				continue
			}
			if _, err := w.ToggleComponent(selected.ID); err != nil {
				return err
			}
		}
		for _, c := range components {
			if err := w.SelectComponent(c.id); err != nil {
				return fmt.Errorf("component %s: %w", c.id, err)
			}
			if c.raw == "" {
				continue
			}
			if err := w.SetAmount(c.id, c.raw); err != nil {
				return fmt.Errorf("component %s: %w", c.id, err)
			}
		}
	}
	if payGrade != "" {
		if err := w.SelectPayGrade(payGrade); err != nil {
			return fmt.Errorf("pay grade %s: %w", payGrade, err)
		}
	}
	if payFrequency != "" {
		if err := w.SelectPayFrequency(payFrequency); err != nil {
			return fmt.Errorf("pay frequency %s: %w", payFrequency, err)
		}
	}

	applied := map[string]bool{}
	for _, d := range w.Configuration().Deductions {
		applied[d.ID] = true
	}
	for _, id := range deductions {
		if applied[id] {
			continue
		}
		if _, err := w.ToggleDeduction(id); err != nil {
			return fmt.Errorf("deduction %s: %w", id, err)
		}
		applied[id] = true
	}
	if currency != "" {
		return w.SetCurrency(currency)
	}
	return nil
}

func printReview(out io.Writer, w *salary.Wizard) {
	cfg := w.Configuration()
	totals := w.Totals()
	code := cfg.Currency

	if emp, ok := w.Employee(); ok {
		fmt.Fprintf(out, "Employee:      %s (%s)\n", emp.EmployeeName, emp.ID)
	}
	if cfg.PayGrade != nil {
		fmt.Fprintf(out, "Pay grade:     %s\n", cfg.PayGrade.Name)
	}
	if cfg.PayFrequency != nil {
		fmt.Fprintf(out, "Pay frequency: %s\n", cfg.PayFrequency.Name)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCOMPONENT\tCATEGORY\tAMOUNT")
	for _, c := range cfg.SelectedComponents {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Category, money.Format(c.Amount, code))
	}
	for _, d := range totals.Deductions {
		fmt.Fprintf(tw, "%s\t%g%%\t-%s\n", d.Name, d.Percentage, money.Format(d.Amount, code))
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nGross:      %s\n", money.Format(totals.Gross, code))
	fmt.Fprintf(out, "Deductions: %s\n", money.Format(totals.TotalDeductions, code))
	fmt.Fprintf(out, "Net:        %s (%d%% take home)\n", money.Format(totals.Net, code), totals.TakeHomePercent)
}

func printServerTotals(out io.Writer, totals salary.Totals, code string) {
	fmt.Fprintf(out, "\nServer gross:      %s\n", money.Format(totals.Gross, code))
	fmt.Fprintf(out, "Server deductions: %s\n", money.Format(totals.TotalDeductions, code))
	fmt.Fprintf(out, "Server net:        %s (%d%% take home)\n", money.Format(totals.Net, code), totals.TakeHomePercent)
}

func (a *App) confirm() bool {
	if a.In == nil {
		return false
	}
	fmt.Fprint(a.Out, "Save this structure? [y/N] ")
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *App) runSlips(ctx context.Context, args []string) error {
	fs := a.newFlags("slips")
	query := fs.String("query", "", "match employee name or slip id")
	month := fs.String("month", "", "month as YYYY-MM")
	status := fs.String("status", "", "draft or paid")
	summaryOnly := fs.Bool("summary", false, "print only the tenant wide summary")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *summaryOnly {
		sum, err := a.API.SlipSummary(ctx)
		if err != nil {
			return err
		}
		printSlipSummary(a.Out, sum)
		return nil
	}

	list, err := a.API.ListSlips(ctx, slip.Filter{Query: *query, Month: *month, Status: *status})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLIP\tEMPLOYEE\tPERIOD\tSTATUS\tNET")
	for _, s := range list.Slips {
		net := "-"
		if s.TotalAmount != nil {
			net = money.Format(*s.TotalAmount, s.CurrencyOrDefault())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\n", s.ID, s.Breakdown.EmployeeName, s.FromDate, s.ToDate, s.Status, net)
	}
	_ = tw.Flush()

	fmt.Fprintln(a.Out)
	printSlipSummary(a.Out, list.Summary)
	return nil
}

func printSlipSummary(out io.Writer, sum slip.Summary) {
	fmt.Fprintf(out, "%d slips, %d paid, payout %s, average %s, advances %s\n",
		sum.TotalSlips, sum.PaidSlips,
		money.Format(sum.TotalPayout, ""), money.Format(sum.AvgSalary, ""), money.Format(sum.Advances, ""))
}
