// Command gadmin is a CLI admin client for the event-management backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
	"github.com/D-Rayno/g-agency-admin-go/internal/service"
	"github.com/D-Rayno/g-agency-admin-go/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client, services, and stores for one invocation.
type app struct {
	keys  keystore.Store
	auth  *store.Auth
	authS *service.Auth

	events *store.Events
	users  *store.Users
	regs   *store.Registrations
	dash   *store.Dashboard
	notif  *store.Notification

	exports *service.Exports
	bulk    *service.Bulk
}

// stderrNotifier is the CLI's toast channel.
type stderrNotifier struct{}

func (stderrNotifier) Success(title, msg string) { fmt.Fprintf(os.Stderr, "%s: %s\n", title, msg) }
func (stderrNotifier) Error(title, msg string)   { fmt.Fprintf(os.Stderr, "%s: %s\n", title, msg) }

func usage() {
	fmt.Fprintf(os.Stderr, `gadmin CLI
Usage:
  gadmin [-base-url URL] [-store FILE] <cmd> [args]

Session:
  login          -p <password>
  logout | logout-all
  logout-device  -id <deviceId>
  check | sessions | auth-stats | alerts

Resources:
  dashboard
  events         [-page N] [-category C] [-search Q] [-force]
  event-get      -id N
  event-rm       -id N
  event-publish  -id N [-off]
  users          [-page N] [-search Q] [-force]
  user-block     -id N [-off]
  user-rm        -id N
  regs           [-page N] [-event N] [-status S] [-force]
  reg-verify     -qr <payload>
  reg-confirm    -id N
  reg-cancel     -id N
  bulk-rm        -resource R -ids 1,2,3
  export         -resource R [-format csv|excel] [-o FILE]

  version
`)
	os.Exit(2)
}

func main() {
	baseURL := flag.String("base-url", "", "backend base URL (default $GADMIN_BASE_URL)")
	storePath := flag.String("store", keystore.DefaultPath(), "encrypted keystore file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("gadmin %s (%s)\n", version, buildDate)
		return
	}

	base := *baseURL
	if base == "" {
		base = strings.TrimRight(os.Getenv("GADMIN_BASE_URL"), "/")
	}
	if base == "" {
		fail(fmt.Errorf("no base URL (set -base-url or GADMIN_BASE_URL)"))
	}
	pass := os.Getenv("GADMIN_PASSPHRASE")
	if pass == "" {
		fail(fmt.Errorf("GADMIN_PASSPHRASE not set"))
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := wire(base, *storePath, pass, logger)
	if err != nil {
		fail(err)
	}
	if err := a.auth.Load(ctx); err != nil {
		fail(err)
	}

	if err := a.run(ctx, cmd, args); err != nil {
		fail(err)
	}
}

func wire(baseURL, storePath, passphrase string, logger *zap.Logger) (*app, error) {
	keys := keystore.NewFile(storePath, passphrase)

	var authStore *store.Auth
	client, err := api.New(api.Config{
		BaseURL:  baseURL,
		Keys:     keys,
		Notifier: stderrNotifier{},
		Logger:   logger,
		OnSessionExpired: func() {
			// The mobile shell navigates to login here; the CLI just drops state.
			if authStore != nil {
				authStore.ForceLogout(context.Background())
			}
		},
	})
	if err != nil {
		return nil, err
	}

	authSvc := service.NewAuth(client)
	eventsSvc := service.NewEvents(client)
	usersSvc := service.NewUsers(client)
	regsSvc := service.NewRegistrations(client)

	authStore = store.NewAuth(authSvc, keys, logger)
	return &app{
		keys:    keys,
		auth:    authStore,
		authS:   authSvc,
		events:  store.NewEvents(eventsSvc, logger),
		users:   store.NewUsers(usersSvc, logger),
		regs:    store.NewRegistrations(regsSvc, logger),
		dash:    store.NewDashboard(eventsSvc, usersSvc, regsSvc, logger),
		notif:   store.NewNotification(authSvc, keys, logger),
		exports: service.NewExports(client),
		bulk:    service.NewBulk(client),
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		p := fs.String("p", "", "admin password")
		fcm := fs.String("fcm", "", "FCM push token (optional)")
		_ = fs.Parse(args)
		if *p == "" {
			return fmt.Errorf("need -p")
		}
		dev, err := a.deviceInfo(ctx, *fcm)
		if err != nil {
			return err
		}
		if err := a.auth.Login(ctx, *p, dev); err != nil {
			return err
		}
		fmt.Println("ok")

	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("ok")

	case "logout-all":
		if err := a.authS.LogoutAll(ctx); err != nil {
			return err
		}
		a.auth.ForceLogout(ctx)
		fmt.Println("ok")

	case "logout-device":
		fs := flag.NewFlagSet("logout-device", flag.ExitOnError)
		id := fs.String("id", "", "device id")
		_ = fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("need -id")
		}
		return a.authS.LogoutDevice(ctx, *id)

	case "check":
		ok, err := a.auth.CheckAuth(ctx)
		if err != nil {
			return err
		}
		fmt.Println(map[bool]string{true: "authenticated", false: "logged out"}[ok])

	case "sessions":
		out, err := a.authS.Sessions(ctx)
		if err != nil {
			return err
		}
		printJSON(out)

	case "auth-stats":
		out, err := a.authS.Stats(ctx)
		if err != nil {
			return err
		}
		printJSON(out)

	case "alerts":
		out, err := a.authS.SecurityAlerts(ctx)
		if err != nil {
			return err
		}
		printJSON(out)

	case "dashboard":
		out, err := a.dash.Fetch(ctx, false)
		if err != nil {
			return err
		}
		printJSON(out)

	case "events":
		fs := flag.NewFlagSet("events", flag.ExitOnError)
		page := fs.Int("page", 1, "page")
		category := fs.String("category", "", "filter by category")
		search := fs.String("search", "", "search term")
		force := fs.Bool("force", false, "bypass cache")
		_ = fs.Parse(args)
		filters := map[string]string{"category": *category, "search": *search}
		if err := a.events.Fetch(ctx, filters, *page, *force); err != nil {
			return err
		}
		printJSON(struct {
			Items []model.Event  `json:"items"`
			Meta  model.PageMeta `json:"meta"`
		}{a.events.Items(), a.events.Meta()})

	case "event-get":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		ev, err := a.events.Select(ctx, id, false)
		if err != nil {
			return err
		}
		printJSON(ev)

	case "event-rm":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return a.events.Delete(ctx, id)

	case "event-publish":
		fs := flag.NewFlagSet("event-publish", flag.ExitOnError)
		id := fs.Int64("id", 0, "event id")
		off := fs.Bool("off", false, "unpublish instead")
		_ = fs.Parse(args)
		if *id == 0 {
			return fmt.Errorf("need -id")
		}
		return a.events.SetPublished(ctx, *id, !*off)

	case "users":
		fs := flag.NewFlagSet("users", flag.ExitOnError)
		page := fs.Int("page", 1, "page")
		search := fs.String("search", "", "search term")
		force := fs.Bool("force", false, "bypass cache")
		_ = fs.Parse(args)
		if err := a.users.Fetch(ctx, map[string]string{"search": *search}, *page, *force); err != nil {
			return err
		}
		printJSON(struct {
			Items []model.User   `json:"items"`
			Meta  model.PageMeta `json:"meta"`
		}{a.users.Items(), a.users.Meta()})

	case "user-block":
		fs := flag.NewFlagSet("user-block", flag.ExitOnError)
		id := fs.Int64("id", 0, "user id")
		off := fs.Bool("off", false, "unblock instead")
		_ = fs.Parse(args)
		if *id == 0 {
			return fmt.Errorf("need -id")
		}
		return a.users.SetBlocked(ctx, *id, !*off)

	case "user-rm":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return a.users.Delete(ctx, id)

	case "regs":
		fs := flag.NewFlagSet("regs", flag.ExitOnError)
		page := fs.Int("page", 1, "page")
		event := fs.String("event", "", "filter by event id")
		status := fs.String("status", "", "filter by status")
		force := fs.Bool("force", false, "bypass cache")
		_ = fs.Parse(args)
		filters := map[string]string{"event_id": *event, "status": *status}
		if err := a.regs.Fetch(ctx, filters, *page, *force); err != nil {
			return err
		}
		printJSON(struct {
			Items []model.Registration `json:"items"`
			Meta  model.PageMeta       `json:"meta"`
		}{a.regs.Items(), a.regs.Meta()})

	case "reg-verify":
		fs := flag.NewFlagSet("reg-verify", flag.ExitOnError)
		qr := fs.String("qr", "", "scanned QR payload")
		_ = fs.Parse(args)
		if *qr == "" {
			return fmt.Errorf("need -qr")
		}
		reg, err := a.regs.Verify(ctx, *qr)
		if err != nil {
			return err
		}
		printJSON(reg)

	case "reg-confirm":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return a.regs.Confirm(ctx, id)

	case "reg-cancel":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return a.regs.Cancel(ctx, id)

	case "bulk-rm":
		fs := flag.NewFlagSet("bulk-rm", flag.ExitOnError)
		resource := fs.String("resource", "", "events|users|registrations")
		rawIDs := fs.String("ids", "", "comma-separated ids")
		_ = fs.Parse(args)
		ids, err := parseIDs(*rawIDs)
		if err != nil || *resource == "" {
			return fmt.Errorf("need -resource and -ids")
		}
		n, err := a.bulk.Delete(ctx, *resource, ids)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d\n", n)

	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		resource := fs.String("resource", "", "events|users|registrations")
		format := fs.String("format", "csv", "csv|excel")
		out := fs.String("o", "", "output file ('-'=stdout)")
		_ = fs.Parse(args)
		if *resource == "" {
			return fmt.Errorf("need -resource")
		}
		var raw []byte
		var err error
		switch *format {
		case "csv":
			raw, err = a.exports.CSV(ctx, *resource, nil)
		case "excel":
			raw, err = a.exports.Excel(ctx, *resource, nil)
		default:
			return fmt.Errorf("unknown format %q", *format)
		}
		if err != nil {
			return err
		}
		if *out == "" || *out == "-" {
			_, err = os.Stdout.Write(raw)
			return err
		}
		return os.WriteFile(*out, raw, 0o600)

	default:
		usage()
	}
	return nil
}

// deviceInfo gathers the login fingerprint; the device ID is generated once
// and persisted.
func (a *app) deviceInfo(ctx context.Context, fcmToken string) (model.DeviceInfo, error) {
	id, err := a.keys.Get(ctx, keystore.KeyDeviceID)
	if err != nil {
		uid, uerr := uuid.NewV4()
		if uerr != nil {
			return model.DeviceInfo{}, uerr
		}
		id = uid.String()
		if err := a.keys.Set(ctx, keystore.KeyDeviceID, id); err != nil {
			return model.DeviceInfo{}, err
		}
	}
	host, _ := os.Hostname()
	return model.DeviceInfo{
		DeviceID:    id,
		DeviceName:  host,
		DeviceModel: runtime.GOARCH,
		OSVersion:   runtime.GOOS,
		AppVersion:  version,
		FCMToken:    fcmToken,
	}, nil
}

func idArg(args []string) (int64, error) {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	id := fs.Int64("id", 0, "entity id")
	_ = fs.Parse(args)
	if *id == 0 {
		return 0, fmt.Errorf("need -id")
	}
	return *id, nil
}

func parseIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty ids")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		var id int64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &id); err != nil {
			return nil, fmt.Errorf("bad id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
