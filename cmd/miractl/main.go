package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/authz"
	"github.com/mira-platform/miractl/internal/config"
	"github.com/mira-platform/miractl/internal/log"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/session"
	"github.com/mira-platform/miractl/internal/state"
	"github.com/mira-platform/miractl/internal/state/sqlite"
	"github.com/mira-platform/miractl/internal/stores"
	"github.com/mira-platform/miractl/internal/view"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("miractl v0.1.0")
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "status", "whoami":
		cmdStatus(args)
	case "dashboard":
		cmdDashboard(args)
	case "users":
		cmdUsers(args)
	case "admins":
		cmdAdmins(args)
	case "feed":
		cmdFeed(args)
	case "reports":
		cmdReports(args)
	case "subs":
		cmdSubs(args)
	case "features":
		cmdFeatures(args)
	case "export":
		cmdExport(args)
	case "import":
		cmdImport(args)
	case "log":
		cmdLog(args)
	case "profiles":
		cmdProfiles(args)
	case "use", "switch":
		cmdUse(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`miractl - MIRA admin console

Usage: miractl <command> [options]

Session:
  login               Authenticate against the MIRA API
  logout              End the session (local state clears regardless)
  status              Show the active profile and session

Moderation:
  dashboard           Overview: totals, top feature, pending badge
  users               list | delete | set-plan
  admins              list | add | remove
  feed                list | delete
  reports             list | dismiss | resolve
  subs                list | approve | reject
  features            Aggregated feature usage

Data:
  export              Download the user-profile workbook (.xlsx)
  import              Upload a community-post spreadsheet
  log                 Show the local action log

Profiles:
  profiles            list | add | remove
  use <name>          Switch the active profile

Examples:
  miractl login --username root
  miractl users list --tier premium
  miractl users set-plan --id u-42 --plan "Monthly Premium"
  miractl reports resolve --id r-7 --yes
  miractl export --dir ./out

Environment Variables:
  MIRACTL_API_BASEURL   API base URL (default: http://localhost:3000)
  MIRACTL_API_TIMEOUT   Request timeout (default: 30s)
  MIRACTL_ENVIRONMENT   development | production`)
}

// ============================================================================
// WIRING
// ============================================================================

type app struct {
	cfg     *config.Config
	st      *sqlite.Store
	sess    *session.Manager
	client  *api.Client
	deps    stores.Deps
	profile string
	logger  zerolog.Logger
}

func newApp() *app {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}
	// every invocation gets its own id so log lines from one run correlate
	logger := log.New(cfg.Environment).With().Str("run_id", uuid.NewString()).Logger()

	if err := os.MkdirAll(cfg.State.Dir, 0o700); err != nil {
		fatal("create state dir: %v", err)
	}
	st, err := sqlite.Open(cfg.DBPath())
	if err != nil {
		fatal("open state db: %v", err)
	}

	profile := "default"
	if v, err := st.GetKV(ctx, state.KeyCurrentProfile); err == nil && v != "" {
		profile = v
	}

	baseURL := cfg.API.BaseURL
	if p, err := st.GetProfile(ctx, profile); err == nil && p.BaseURL != "" {
		baseURL = p.BaseURL
	}

	sess := session.NewManager()
	if rec, err := st.GetSession(ctx, profile); err == nil {
		sess.Set(model.Session{
			Token:       rec.Token,
			Role:        model.Role(rec.Role),
			DisplayName: rec.DisplayName,
		})
	}
	sess.OnUnauthorized(func() {
		_ = st.ClearSessions(context.Background())
		fmt.Fprintln(os.Stderr, "Session expired. Run 'miractl login' again.")
	})

	client := api.New(baseURL, sess, logger, cfg.API.Timeout)

	return &app{
		cfg:     cfg,
		st:      st,
		sess:    sess,
		client:  client,
		profile: profile,
		logger:  logger,
		deps: stores.Deps{
			Client:  client,
			Session: sess,
			Actions: st,
			Log:     logger,
		},
	}
}

func (a *app) close() {
	_ = a.st.Close()
}

func (a *app) requireAuth() {
	if !a.sess.Current().Authenticated() {
		fatal("not logged in. Run 'miractl login' first")
	}
}

func (a *app) requireAccess(res authz.Resource) {
	a.requireAuth()
	if !authz.CanAccess(a.sess.Current().Role, res) {
		fatal("your role does not allow access to %s", res)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func fatalErr(err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		os.Exit(1)
	}
	fatal("%s", api.UserMessage(err))
}

// confirm asks for y/N unless --yes was passed.
func confirm(yes bool, prompt string) bool {
	if yes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func promptPassword() string {
	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// ============================================================================
// SESSION COMMANDS
// ============================================================================

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "Admin username (required)")
	password := fs.String("password", "", "Admin password (prompted if omitted)")
	fs.Parse(args)

	if *username == "" {
		fatal("--username is required")
	}
	pw := *password
	if pw == "" {
		pw = promptPassword()
	}

	a := newApp()
	defer a.close()
	ctx := context.Background()

	sess, err := a.client.Login(ctx, *username, pw)
	if err != nil {
		fatalErr(err)
	}

	a.sess.Set(sess)
	if err := a.st.SaveSession(ctx, state.SessionRecord{
		Profile:     a.profile,
		Token:       sess.Token,
		Role:        string(sess.Role),
		DisplayName: sess.DisplayName,
		SavedAt:     time.Now().UTC(),
	}); err != nil {
		fatal("persist session: %v", err)
	}

	a.logger.Info().
		Str("profile", a.profile).
		Str("token_fp", session.Fingerprint(sess.Token)).
		Msg("logged in")
	fmt.Printf("✓ Logged in as '%s' (%s)\n", sess.DisplayName, sess.Role)
}

func cmdLogout(args []string) {
	a := newApp()
	defer a.close()
	ctx := context.Background()

	// best-effort server notification; local state clears regardless
	if a.sess.Current().Authenticated() {
		if err := a.client.Logout(ctx); err != nil {
			a.logger.Debug().Err(err).Msg("server logout failed")
		}
	}
	a.sess.Clear()
	if err := a.st.ClearSessions(ctx); err != nil {
		fatal("clear sessions: %v", err)
	}
	fmt.Println("✓ Logged out")
}

func cmdStatus(args []string) {
	a := newApp()
	defer a.close()

	fmt.Printf("Profile:  %s\n", a.profile)
	fmt.Printf("Server:   %s\n", a.client.BaseURL)

	cur := a.sess.Current()
	if !cur.Authenticated() {
		fmt.Println("Session:  not logged in")
		return
	}
	fmt.Printf("Session:  %s (%s), token %s\n", cur.DisplayName, cur.Role, session.Fingerprint(cur.Token))
}

// ============================================================================
// DASHBOARD
// ============================================================================

func cmdDashboard(args []string) {
	a := newApp()
	defer a.close()
	a.requireAuth()
	ctx := context.Background()

	users := stores.NewUsers(a.deps)
	features := stores.NewFeatures(a.deps)
	d := stores.NewDashboard(a.deps, users, features)

	ov, err := d.Load(ctx)
	if err != nil {
		fatalErr(err)
	}

	fmt.Printf("Welcome, %s\n\n", ov.Username)
	if ov.UsersError != "" {
		fmt.Printf("Users:          unavailable (%s)\n", ov.UsersError)
	} else {
		fmt.Printf("Users:          %d total, %d premium (%.0f%%)\n",
			ov.TotalUsers, ov.PremiumUsers, ov.PremiumShare*100)
	}
	if ov.FeaturesError != "" {
		fmt.Printf("Feature usage:  unavailable (%s)\n", ov.FeaturesError)
	} else if ov.TopFeature != "" {
		fmt.Printf("Feature usage:  %d events, top: %s (%d)\n", ov.TotalHits, ov.TopFeature, ov.TopFeatureN)
	} else {
		fmt.Println("Feature usage:  no events")
	}
	if ov.PendingBadge {
		fmt.Println("\n! Pending subscription requests waiting: miractl subs list")
	}
}

// ============================================================================
// USERS
// ============================================================================

func cmdUsers(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		usersList(rest)
	case "delete", "rm":
		usersDelete(rest)
	case "set-plan":
		usersSetPlan(rest)
	default:
		fatal("unknown users subcommand: %s", sub)
	}
}

func usersList(args []string) {
	fs := flag.NewFlagSet("users list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by name or email")
	tier := fs.String("tier", "", "Filter by tier: reguler | plus | premium")
	fs.Parse(args)

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewUsers(a.deps)
	if err := s.List(context.Background()); err != nil {
		fatalErr(err)
	}

	users := s.Filter(*query, aggregate.TierFilter(strings.ToUpper(*tier)))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tTIER\tSINCE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.DisplayName(), u.Email, u.Tier(), u.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
	fmt.Printf("\n%d users\n", len(users))
}

func usersDelete(args []string) {
	fs := flag.NewFlagSet("users delete", flag.ExitOnError)
	id := fs.String("id", "", "User id (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *id == "" {
		fatal("--id is required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()

	if !confirm(*yes, fmt.Sprintf("Delete user %s and all their content?", *id)) {
		fmt.Println("Aborted")
		return
	}

	s := stores.NewUsers(a.deps)
	if err := s.Delete(context.Background(), *id); err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Deleted user %s\n", *id)
}

func usersSetPlan(args []string) {
	fs := flag.NewFlagSet("users set-plan", flag.ExitOnError)
	id := fs.String("id", "", "User id (required)")
	plan := fs.String("plan", "", "One of: "+strings.Join(model.PlanOptions, ", "))
	fs.Parse(args)
	if *id == "" || *plan == "" {
		fatal("--id and --plan are required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewUsers(a.deps)
	if err := s.SetPlan(context.Background(), *id, *plan); err != nil {
		if stores.IsValidation(err) {
			fatal("%v. Valid plans: %s", err, strings.Join(model.PlanOptions, ", "))
		}
		fatalErr(err)
	}
	fmt.Printf("✓ Set plan of %s to %s\n", *id, *plan)
}

// ============================================================================
// ADMINS
// ============================================================================

func cmdAdmins(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		adminsList(rest)
	case "add", "register":
		adminsAdd(rest)
	case "remove", "rm":
		adminsRemove(rest)
	default:
		fatal("unknown admins subcommand: %s", sub)
	}
}

func adminsList(args []string) {
	a := newApp()
	defer a.close()
	a.requireAccess(authz.ResourceAdmins)

	s := stores.NewAdmins(a.deps)
	if err := s.List(context.Background()); err != nil {
		fatalErr(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tSINCE")
	for _, ad := range s.Items() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", ad.ID, ad.Username, ad.Role, ad.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

func adminsAdd(args []string) {
	fs := flag.NewFlagSet("admins add", flag.ExitOnError)
	username := fs.String("username", "", "New admin username (required)")
	password := fs.String("password", "", "New admin password (prompted if omitted)")
	fs.Parse(args)
	if *username == "" {
		fatal("--username is required")
	}
	pw := *password
	if pw == "" {
		pw = promptPassword()
	}

	a := newApp()
	defer a.close()
	a.requireAccess(authz.ResourceAdmins)

	s := stores.NewAdmins(a.deps)
	if err := s.Register(context.Background(), *username, pw); err != nil {
		if stores.IsValidation(err) {
			fatal("%v", err)
		}
		fatalErr(err)
	}
	fmt.Printf("✓ Registered admin '%s'\n", *username)
}

func adminsRemove(args []string) {
	fs := flag.NewFlagSet("admins remove", flag.ExitOnError)
	id := fs.Int64("id", 0, "Admin id (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *id == 0 {
		fatal("--id is required")
	}

	a := newApp()
	defer a.close()
	a.requireAccess(authz.ResourceAdmins)

	if !confirm(*yes, fmt.Sprintf("Remove admin %d?", *id)) {
		fmt.Println("Aborted")
		return
	}

	s := stores.NewAdmins(a.deps)
	if err := s.Delete(context.Background(), *id); err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Removed admin %d\n", *id)
}

// ============================================================================
// FEED
// ============================================================================

func cmdFeed(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		feedList(rest)
	case "delete", "rm":
		feedDelete(rest)
	default:
		fatal("unknown feed subcommand: %s", sub)
	}
}

func feedList(args []string) {
	fs := flag.NewFlagSet("feed list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by content or author")
	kind := fs.String("type", "", "Filter by type: post | comment")
	fs.Parse(args)

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewFeed(a.deps)
	if err := s.List(context.Background()); err != nil {
		fatalErr(err)
	}

	items := s.Filter(*query, aggregate.FeedTypeFilter(strings.ToUpper(*kind)))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tAUTHOR\tCONTENT\tWHEN")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			it.UniqueKey, it.Type, it.Author.FullName, truncate(it.Content, 48), it.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("\n%d items\n", len(items))
}

func feedDelete(args []string) {
	fs := flag.NewFlagSet("feed delete", flag.ExitOnError)
	key := fs.String("key", "", "Feed item key, e.g. post-<id> or comment-<id> (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)

	item, err := feedItemFromKey(*key)
	if err != nil {
		fatal("%v", err)
	}

	a := newApp()
	defer a.close()
	a.requireAuth()

	if !confirm(*yes, fmt.Sprintf("Delete %s %s?", strings.ToLower(string(item.Type)), item.ID)) {
		fmt.Println("Aborted")
		return
	}

	s := stores.NewFeed(a.deps)
	if err := s.DeleteItem(context.Background(), item); err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Deleted %s\n", *key)
}

func feedItemFromKey(key string) (model.FeedItem, error) {
	switch {
	case strings.HasPrefix(key, "post-"):
		id := strings.TrimPrefix(key, "post-")
		return model.FeedItem{ID: id, UniqueKey: key, Type: model.FeedPost}, nil
	case strings.HasPrefix(key, "comment-"):
		id := strings.TrimPrefix(key, "comment-")
		return model.FeedItem{ID: id, UniqueKey: key, Type: model.FeedComment}, nil
	}
	return model.FeedItem{}, fmt.Errorf("--key must look like post-<id> or comment-<id>")
}

// ============================================================================
// REPORTS
// ============================================================================

func cmdReports(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		reportsList(rest)
	case "dismiss":
		reportsDismiss(rest)
	case "resolve":
		reportsResolve(rest)
	default:
		fatal("unknown reports subcommand: %s", sub)
	}
}

func reportsList(args []string) {
	fs := flag.NewFlagSet("reports list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by reason or content")
	fs.Parse(args)

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewReports(a.deps)
	if err := s.List(context.Background()); err != nil {
		fatalErr(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREASON\tCONTENT\tREPORTED")
	for _, r := range s.Filter(*query) {
		content := "(removed)"
		if r.Post != nil {
			content = truncate(r.Post.Content, 48)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Reason, content, r.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

func reportsDismiss(args []string) {
	fs := flag.NewFlagSet("reports dismiss", flag.ExitOnError)
	id := fs.String("id", "", "Report id (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *id == "" {
		fatal("--id is required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()

	if !confirm(*yes, fmt.Sprintf("Dismiss report %s? The reported content stays up.", *id)) {
		fmt.Println("Aborted")
		return
	}

	s := stores.NewReports(a.deps)
	if err := s.Dismiss(context.Background(), *id); err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Dismissed report %s\n", *id)
}

func reportsResolve(args []string) {
	fs := flag.NewFlagSet("reports resolve", flag.ExitOnError)
	id := fs.String("id", "", "Report id (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *id == "" {
		fatal("--id is required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()
	ctx := context.Background()

	s := stores.NewReports(a.deps)
	if err := s.List(ctx); err != nil {
		fatalErr(err)
	}
	var report model.Report
	found := false
	for _, r := range s.Items() {
		if r.ID == *id {
			report, found = r, true
			break
		}
	}
	if !found {
		fatal("no pending report with id %s", *id)
	}

	if !confirm(*yes, fmt.Sprintf("Resolve report %s? This DELETES the reported content.", *id)) {
		fmt.Println("Aborted")
		return
	}

	res := s.Resolve(ctx, report)
	switch res.Outcome {
	case view.SagaComplete:
		fmt.Printf("✓ Resolved report %s: content and report removed\n", *id)
	case view.SagaPartial:
		fmt.Printf("! Content was removed but the report remains (%s)\n", api.UserMessage(res.Err))
		fmt.Printf("  Retry with: miractl reports dismiss --id %s\n", *id)
		os.Exit(1)
	default:
		fatal("resolve failed at %s step: %s", res.FailedStep, api.UserMessage(res.Err))
	}
}

// ============================================================================
// SUBSCRIPTIONS
// ============================================================================

func cmdSubs(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		subsList(rest)
	case "approve":
		subsDecide(rest, "approve")
	case "reject":
		subsDecide(rest, "reject")
	default:
		fatal("unknown subs subcommand: %s", sub)
	}
}

func subsList(args []string) {
	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewSubscriptions(a.deps)
	if err := s.ListPending(context.Background()); err != nil {
		fatalErr(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREQUESTER\tPLAN\tREQUESTED")
	for _, r := range s.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Requester.FullName, r.RequestedPlan, r.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

func subsDecide(args []string, action string) {
	fs := flag.NewFlagSet("subs "+action, flag.ExitOnError)
	id := fs.String("id", "", "Request id (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *id == "" {
		fatal("--id is required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()
	ctx := context.Background()

	if !confirm(*yes, fmt.Sprintf("%s subscription request %s?", action, *id)) {
		fmt.Println("Aborted")
		return
	}

	s := stores.NewSubscriptions(a.deps)
	if err := s.ListPending(ctx); err != nil {
		fatalErr(err)
	}

	var err error
	outcome := "approved"
	if action == "approve" {
		err = s.Approve(ctx, *id)
	} else {
		err = s.Reject(ctx, *id)
		outcome = "rejected"
	}
	if err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Request %s %s\n", *id, outcome)
}

// ============================================================================
// FEATURES
// ============================================================================

func cmdFeatures(args []string) {
	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewFeatures(a.deps)
	if err := s.List(context.Background()); err != nil {
		fatalErr(err)
	}

	summaries := s.Summaries()
	total := s.TotalHits()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FEATURE\tUSES\tSHARE\tLAST USED")
	for _, f := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%s\n",
			aggregate.FormatFeatureName(f.FeatureName),
			f.UsageCount,
			aggregate.UsageShare(summaries, f.UsageCount),
			f.LastUsedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("\n%d events across %d features\n", total, len(summaries))
}

// ============================================================================
// DATA TRANSFER
// ============================================================================

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dir := fs.String("dir", ".", "Directory to write the workbook into")
	fs.Parse(args)

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewTransfer(a.deps)
	path, n, err := s.ExportProfiles(context.Background(), *dir)
	if err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Exported %d bytes to %s\n", n, path)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Spreadsheet to upload (required)")
	fs.Parse(args)
	if *file == "" {
		fatal("--file is required")
	}

	a := newApp()
	defer a.close()
	a.requireAuth()

	s := stores.NewTransfer(a.deps)
	msg, err := s.ImportPosts(context.Background(), *file)
	if err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ %s\n", msg)
}

// ============================================================================
// ACTION LOG
// ============================================================================

func cmdLog(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Number of entries to show")
	fs.Parse(args)

	a := newApp()
	defer a.close()

	entries, err := a.st.ListActions(context.Background(), *limit)
	if err != nil {
		fatal("read action log: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tTARGET\tOUTCOME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Actor, e.Action, e.Target, e.Outcome)
	}
	w.Flush()
}

// ============================================================================
// PROFILES
// ============================================================================

func cmdProfiles(args []string) {
	sub, rest := splitSub(args, "list")
	switch sub {
	case "list":
		profilesList(rest)
	case "add":
		profilesAdd(rest)
	case "remove", "rm":
		profilesRemove(rest)
	default:
		fatal("unknown profiles subcommand: %s", sub)
	}
}

func profilesList(args []string) {
	a := newApp()
	defer a.close()

	profiles, err := a.st.ListProfiles(context.Background())
	if err != nil {
		fatal("list profiles: %v", err)
	}

	for _, p := range profiles {
		marker := "  "
		if p.Name == a.profile {
			marker = "* "
		}
		fmt.Printf("%s%s\t%s\n", marker, p.Name, p.BaseURL)
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles. Add one with: miractl profiles add --name prod --url https://...")
	}
}

func profilesAdd(args []string) {
	fs := flag.NewFlagSet("profiles add", flag.ExitOnError)
	name := fs.String("name", "", "Profile name (required)")
	url := fs.String("url", "", "API base URL (required)")
	fs.Parse(args)
	if *name == "" || *url == "" {
		fatal("--name and --url are required")
	}

	a := newApp()
	defer a.close()

	p := state.Profile{Name: *name, BaseURL: strings.TrimSuffix(*url, "/"), CreatedAt: time.Now().UTC()}
	if _, err := a.st.CreateProfile(context.Background(), &p); err != nil {
		if errors.Is(err, state.ErrDuplicateProfile) {
			fatal("profile '%s' already exists", *name)
		}
		fatal("create profile: %v", err)
	}
	fmt.Printf("✓ Added profile '%s' (%s)\n", *name, p.BaseURL)
	fmt.Printf("  Switch with: miractl use %s\n", *name)
}

func profilesRemove(args []string) {
	fs := flag.NewFlagSet("profiles remove", flag.ExitOnError)
	name := fs.String("name", "", "Profile name (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	fs.Parse(args)
	if *name == "" {
		fatal("--name is required")
	}

	a := newApp()
	defer a.close()

	if !confirm(*yes, fmt.Sprintf("Remove profile '%s' and its saved session?", *name)) {
		fmt.Println("Aborted")
		return
	}

	if err := a.st.DeleteProfile(context.Background(), *name); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			fatal("no profile named '%s'", *name)
		}
		fatal("remove profile: %v", err)
	}
	fmt.Printf("✓ Removed profile '%s'\n", *name)
}

func cmdUse(args []string) {
	if len(args) < 1 {
		fatal("usage: miractl use <profile>")
	}
	name := args[0]

	a := newApp()
	defer a.close()
	ctx := context.Background()

	if _, err := a.st.GetProfile(ctx, name); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			fatal("no profile named '%s'. Add it with: miractl profiles add --name %s --url <base-url>", name, name)
		}
		fatal("load profile: %v", err)
	}
	if err := a.st.SetKV(ctx, state.KeyCurrentProfile, name); err != nil {
		fatal("switch profile: %v", err)
	}
	fmt.Printf("✓ Now using profile '%s'\n", name)
}

// ============================================================================
// HELPERS
// ============================================================================

func splitSub(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
