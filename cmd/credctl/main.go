// Command credctl administers accounts in a SQL-backed goCred store.
//
// Usage:
//
//	credctl [-env file] [-driver postgres|sqlite] [-dsn DSN] <command> [flags]
//
// Commands:
//
//	migrate                          create the accounts schema
//	register -username -email -password [-role] [-phone]
//	unlock -id N                     clear a lock and the failure counter
//	disable -id N / enable -id N     toggle the enabled gate
//	verify-phone -id N -phone P      record a verified phone number
//	locked                           list accounts locked now
//	report                           print the security report as JSON
//
// Engine settings come from GOCRED_* variables (see goCred.LoadConfigEnv).
// Notices go to Kafka when GOCRED_KAFKA_BROKERS is set, to SMTP when
// GOCRED_SMTP_HOST is set, and nowhere otherwise.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal/logging"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/notify/kafka"
	"github.com/MrEthical07/goCred/store/sqlstore"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	engine *goCred.Engine
	store  *sqlstore.Store
	out    io.Writer
	logger *zap.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("credctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	var (
		envFile string
		driver  string
		dsn     string
	)
	global.StringVar(&envFile, "env", "", "optional .env file")
	global.StringVar(&driver, "driver", "", "sql driver (postgres or sqlite); default $GOCRED_DB_DRIVER or postgres")
	global.StringVar(&dsn, "dsn", "", "data source name; default $GOCRED_DB_DSN")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		fmt.Fprintln(stderr, "missing command")
		global.Usage()
		return 2
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := goCred.LoadConfigEnv(envFiles...)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if driver == "" {
		driver = envOr("GOCRED_DB_DRIVER", "postgres")
	}
	if dsn == "" {
		dsn = os.Getenv("GOCRED_DB_DSN")
	}
	if dsn == "" {
		fmt.Fprintln(stderr, "-dsn or GOCRED_DB_DSN is required")
		return 2
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	dbCfg := sqlstore.Config{Driver: driver, DSN: dsn}
	if driver == "sqlite" {
		dbCfg.MaxConns = 1
	}
	db, err := sqlstore.Connect(dbCfg)
	if err != nil {
		logger.Error("connect", zap.Error(err))
		return 1
	}
	defer db.Close()
	store := sqlstore.New(db)

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Error("notifier", zap.Error(err))
		return 1
	}
	defer closeNotifier()

	engine, err := goCred.New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notifier).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("engine build", zap.Error(err))
		return 1
	}
	defer engine.Close()

	a := &app{engine: engine, store: store, out: stdout, logger: logger}
	cmd, rest := global.Arg(0), global.Args()[1:]

	var cmdErr error
	switch cmd {
	case "migrate":
		cmdErr = a.migrate(ctx)
	case "register":
		cmdErr = a.register(ctx, rest, stderr)
	case "unlock":
		cmdErr = a.byID(ctx, "unlock", rest, stderr, engine.UnlockAccount)
	case "disable":
		cmdErr = a.byID(ctx, "disable", rest, stderr, engine.DisableAccount)
	case "enable":
		cmdErr = a.byID(ctx, "enable", rest, stderr, engine.EnableAccount)
	case "verify-phone":
		cmdErr = a.verifyPhone(ctx, rest, stderr)
	case "locked":
		cmdErr = a.locked(ctx)
	case "report":
		cmdErr = a.report()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		return 2
	}
	if cmdErr != nil {
		if errors.Is(cmdErr, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "%s: %v\n", cmd, cmdErr)
		return 1
	}
	return 0
}

func (a *app) migrate(ctx context.Context) error {
	if err := a.store.EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "schema ready")
	return nil
}

func (a *app) register(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var req goCred.RegisterRequest
	var role string
	fs.StringVar(&req.Username, "username", "", "login name")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", os.Getenv("CREDCTL_PASSWORD"), "initial password; default $CREDCTL_PASSWORD")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	fs.StringVar(&role, "role", "", "USER, MODERATOR or ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if role != "" {
		parsed, ok := goCred.ParseRole(role)
		if !ok {
			return fmt.Errorf("unknown role %q", role)
		}
		req.Role = parsed
	}

	acct, err := a.engine.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s id=%d role=%s\n", acct.Username, acct.ID, acct.Role)
	return nil
}

func (a *app) byID(ctx context.Context, name string, args []string, stderr io.Writer, op func(context.Context, int64) error) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("-id is required")
	}
	if err := op(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %d: ok\n", name, *id)
	return nil
}

func (a *app) verifyPhone(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("verify-phone", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "account id")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("-id is required")
	}
	if err := a.engine.VerifyPhone(ctx, *id, *phone); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "verify-phone %d: ok\n", *id)
	return nil
}

func (a *app) locked(ctx context.Context) error {
	accounts, err := a.engine.LockedAccounts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tFAILURES\tLOCKED UNTIL")
	for _, acct := range accounts {
		until := ""
		if acct.AccountLockedUntil != nil {
			until = acct.AccountLockedUntil.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", strconv.FormatInt(acct.ID, 10), acct.Username, acct.FailedLoginAttempts, until)
	}
	return w.Flush()
}

func (a *app) report() error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(a.engine.SecurityReport())
}

func newLogger(cfg goCred.Config) (*zap.Logger, error) {
	if cfg.Logging.Enabled {
		return logging.New(logging.Config{
			Level:        cfg.Logging.Level,
			Dev:          cfg.Logging.Dev,
			FilePattern:  cfg.Logging.FilePattern,
			RotationTime: cfg.Logging.RotationTime,
			MaxAge:       cfg.Logging.MaxAge,
		})
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

func newNotifier(cfg goCred.Config, logger *zap.Logger) (notify.Notifier, func(), error) {
	if brokers := os.Getenv("GOCRED_KAFKA_BROKERS"); brokers != "" {
		producer, err := kafka.NewSyncProducer(kafka.Config{
			Brokers:  strings.Split(brokers, ","),
			Topic:    envOr("GOCRED_KAFKA_TOPIC", "gocred.notifications"),
			ClientID: "credctl",
		})
		if err != nil {
			return nil, nil, err
		}
		pub := kafka.NewPublisher(producer, envOr("GOCRED_KAFKA_TOPIC", "gocred.notifications"), logger)
		return pub, func() { _ = pub.Close() }, nil
	}

	if host := os.Getenv("GOCRED_SMTP_HOST"); host != "" {
		port, err := strconv.Atoi(envOr("GOCRED_SMTP_PORT", "587"))
		if err != nil {
			return nil, nil, fmt.Errorf("GOCRED_SMTP_PORT: %w", err)
		}
		smtp := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     host,
			Port:     port,
			Username: os.Getenv("GOCRED_SMTP_USERNAME"),
			Password: os.Getenv("GOCRED_SMTP_PASSWORD"),
			From:     envOr("GOCRED_SMTP_FROM", "no-reply@localhost"),
			Timeout:  10 * time.Second,
		})
		router := notify.NewRouter(smtp, notify.NewLogSMSSender(logger, false), os.Getenv("GOCRED_BASE_URL"))
		return router, func() {}, nil
	}

	return notify.Nop{}, func() {}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
