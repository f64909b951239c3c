package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/catalog"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/pricing"
)

type chargersCmd struct {
	Query string `arg:"-q,--query" help:"match location or area"`
	Type  string `arg:"-t,--type" help:"all, compatible, Type 2, CCS or CHAdeMO"`
}

type quoteCmd struct {
	Price    int `arg:"positional,required" help:"hourly price in rupees"`
	Duration int `arg:"-d,--duration" default:"2" help:"hours, 1 to 8"`
}

type catalogCmd struct {
	File string `arg:"positional,required" help:"YAML catalog file"`
}

type bookingsCmd struct {
	Status string `arg:"-s,--status" help:"all, pending, upcoming, completed or cancelled"`
}

type statsCmd struct{}

type args struct {
	Config string `arg:"-c,--config,env:SPARKCTL_CONFIG" help:"config file, defaults to $XDG_CONFIG_HOME/sparkreach/sparkctl.yaml"`
	Server string `arg:"--server,env:SPARKREACH_SERVER" help:"API base URL"`
	Debug  bool   `arg:"--debug" help:"verbose logging"`

	Chargers *chargersCmd `arg:"subcommand:chargers" help:"list chargers from the API"`
	Quote    *quoteCmd    `arg:"subcommand:quote" help:"price a booking locally"`
	Catalog  *catalogCmd  `arg:"subcommand:catalog" help:"validate and print a catalog file"`
	Bookings *bookingsCmd `arg:"subcommand:bookings" help:"list bookings (admin)"`
	Stats    *statsCmd    `arg:"subcommand:stats" help:"show statistics (admin)"`
}

func (args) Description() string {
	return "sparkctl inspects a SparkReach server and its catalog files"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	logger := newLogger(a.Debug)
	defer logger.Sync()

	if err := run(a); err != nil {
		logger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(a args) error {
	switch {
	case a.Quote != nil:
		b, err := pricing.Quote(a.Quote.Price, a.Quote.Duration)
		if err != nil {
			return err
		}
		printQuote(os.Stdout, b)
		return nil

	case a.Catalog != nil:
		chargers, err := catalog.LoadFile(a.Catalog.File)
		if err != nil {
			return err
		}
		list := make([]models.Charger, 0, len(chargers))
		for _, c := range chargers {
			list = append(list, *c)
		}
		printChargers(os.Stdout, list)
		fmt.Printf("%d chargers OK\n", len(list))
		return nil
	}

	cfg, err := loadConfig(a.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.Server != "" {
		cfg.Server = a.Server
	}
	client, err := newAPIClient(cfg.Server)
	if err != nil {
		return err
	}

	switch {
	case a.Chargers != nil:
		chargers, err := client.Chargers(a.Chargers.Query, a.Chargers.Type)
		if err != nil {
			return err
		}
		printChargers(os.Stdout, chargers)

	case a.Bookings != nil:
		if err := client.AdminLogin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		bookings, err := client.Bookings(a.Bookings.Status)
		if err != nil {
			return err
		}
		printBookings(os.Stdout, bookings)

	case a.Stats != nil:
		if err := client.AdminLogin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		stats, err := client.Statistics()
		if err != nil {
			return err
		}
		printStatistics(os.Stdout, stats)
	}
	return nil
}
