package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/config"
	"smartlocker-web/internal/guard"
	"smartlocker-web/internal/logging"
)

// session bundles the client core for one CLI invocation.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	api    *apiclient.Client
	store  *auth.FileStore
	gw     *auth.Gateway
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		return nil, err
	}

	path, err := auth.DefaultSessionPath()
	if err != nil {
		return nil, err
	}
	api := apiclient.New(cfg.APIURL(), cfg.Timeout(), logger)
	store := auth.NewFileStore(path, cfg.APIURL())
	gw := auth.NewGateway(api, store, logger)
	gw.Restore(ctx)
	return &session{cfg: cfg, logger: logger, api: api, store: store, gw: gw}, nil
}

// require applies the route guard of the equivalent web view.
func (s *session) require(route string) error {
	d := guard.Default().Decide(route, s.gw)
	switch {
	case d.Outcome == guard.Allow:
		return nil
	case d.Outcome == guard.Wait:
		return fmt.Errorf("session store %s is unavailable", s.store.Path())
	case d.Err() != nil:
		return d.Err()
	default:
		return errors.New("not logged in; run 'lockerctl login'")
	}
}

type outputFlag struct {
	format string
}

func addOutputFlag(fs *flag.FlagSet) *outputFlag {
	o := &outputFlag{}
	fs.StringVar(&o.format, "o", "table", "output format: table or yaml")
	return o
}

func (o *outputFlag) validate() error {
	switch o.format {
	case "table", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", o.format)
	}
}

// readSecret returns flagValue, or reads one line from stdin after prompt.
func readSecret(in *bufio.Reader, prompt, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
