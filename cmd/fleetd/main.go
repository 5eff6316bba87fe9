package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/calendar"
	"github.com/ukydev/fleet-manager/internal/config"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/handlers"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/seed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("fleetd failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fleetd",
		Usage: "Fleet management backend: trucks, drivers, missions and their calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file (default $FLEET_CONFIG or config.yml)"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
			calendarCommand(),
			hashPasswordCommand(),
			bootstrapAdminCommand(),
		},
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Log.Setup(); err != nil {
		return nil, fmt.Errorf("invalid log settings: %w", err)
	}
	return cfg, nil
}

func connectStore(ctx context.Context, cfg *config.Config) (*db.MongoStore, func(), error) {
	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")
	return db.NewMongoStore(client, cfg.Mongo.Database), closeFn, nil
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Delete and regenerate the demo data set.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Value: 8, Usage: "Maximum concurrent writes."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			store, closeStore, err := connectStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := seed.New(store, c.Int("concurrency"), loc).Reset(c.Context)
			if err != nil {
				return fmt.Errorf("demo reset aborted: %w", err)
			}
			for _, name := range seed.Collections {
				fmt.Fprintf(c.App.Writer, "%-12s deleted=%d inserted=%d failed=%d\n",
					name, res.Deleted[name], res.Inserted[name], res.Failed[name])
			}
			return nil
		},
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Calendar tools.",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write the events of a calendar window as an iCalendar file.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout.", Value: "-"},
					&cli.StringFlag{Name: "view", Usage: "month or week.", Value: string(calendar.ViewMonth)},
					&cli.StringFlag{Name: "date", Usage: "Anchor day, YYYY-MM-DD (default today)."},
					&cli.StringFlag{Name: "type", Usage: "Event type filter.", Value: string(calendar.TypeAll)},
					&cli.BoolFlag{Name: "demo", Usage: "Export a freshly generated demo data set instead of the database."},
				},
				Action: exportCalendar,
			},
		},
	}
}

func exportCalendar(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	q, err := handlers.ParseViewQuery(url.Values{
		"view": {c.String("view")},
		"date": {c.String("date")},
		"type": {c.String("type")},
	}, loc, time.Now())
	if err != nil {
		return err
	}

	var store db.Store
	if c.Bool("demo") {
		mem := db.NewMemoryStore()
		if _, err := seed.New(mem, 1, loc).Reset(c.Context); err != nil {
			return err
		}
		store = mem
	} else {
		mongoStore, closeStore, err := connectStore(c.Context, cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		store = mongoStore
	}

	src, err := handlers.LoadSources(c.Context, store)
	if err != nil {
		return err
	}
	window := calendar.WindowFor(q.Mode, q.Anchor)
	events := calendar.Filter(calendar.AggregateIn(src, loc, window), q.Type, window)

	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := calendar.WriteICS(w, "Fleet", events, time.Now()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	log.WithFields(log.Fields{"events": len(events), "out": c.String("out")}).Info("Calendar exported")
	return nil
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print the bcrypt hash of a password.",
		ArgsUsage: "<password>",
		Action: func(c *cli.Context) error {
			password := c.Args().First()
			if password == "" {
				return errors.New("password argument is required")
			}
			svc, err := auth.NewService(config.DevJWTSecret, 0)
			if err != nil {
				return err
			}
			if err := svc.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := svc.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash)
			return nil
		},
	}
}

func bootstrapAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "bootstrap-admin",
		Usage: "Create an administrator account.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			svc, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry.Std())
			if err != nil {
				return err
			}
			user, err := newAdmin(svc, c.String("username"), c.String("email"), c.String("password"))
			if err != nil {
				return err
			}

			store, closeStore, err := connectStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			users := db.NewMongoUserCollection(store)
			if err := users.EnsureIndexes(c.Context); err != nil {
				return fmt.Errorf("failed to create user indexes: %w", err)
			}
			id, err := users.InsertUser(c.Context, user)
			if errors.Is(err, db.ErrDuplicate) {
				return fmt.Errorf("%s: %w", auth.Localize(auth.CodeEmailExists, "en"), err)
			}
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"user_id": id, "username": user.Username}).Info("Administrator created")
			return nil
		},
	}
}

// newAdmin validates the credentials and builds an active admin account.
func newAdmin(svc *auth.Service, username, email, password string) (models.User, error) {
	if err := svc.ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := svc.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := svc.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := svc.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}, nil
}
