package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds what every command shares. It is built once per invocation.
type app struct {
	conf        *Config
	api         *APIClient
	cache       *SessionCache
	stopFilters func()
	filters     *FilterStore
	session     *Session
	directory   *Directory
	billing     *Billing
}

func (a *app) open(conf *Config) error {
	cache, err := OpenSessionCache(conf.CacheDir, conf.LogLevel)
	if err != nil {
		return err
	}

	a.conf = conf
	a.cache = cache
	a.api = NewAPIClient(conf.ApiUrl, conf.ApiKey, conf.HttpTimeout)
	a.filters = NewFilterStore(LoadFilter(cache, time.Now()))
	a.stopFilters = PersistFilters(a.filters, cache)
	a.session = NewSession(a.api, cache.Clear, a.filters)
	a.directory = NewDirectory(a.api, cache)
	a.billing = NewBilling(a.api, cache, a.filters)
	return nil
}

// detachCache releases the session cache for long-running commands so other
// invocations can open it. Reads go straight to the API afterwards, and a logout
// reopens the cache just long enough to clear it.
func (a *app) detachCache() {
	a.close()

	conf := a.conf
	a.session = NewSession(a.api, func() error {
		return ClearSessionCache(conf.CacheDir, conf.LogLevel)
	}, a.filters)
	a.directory = NewDirectory(a.api, nil)
	a.billing = NewBilling(a.api, nil, a.filters)
}

func (a *app) close() {
	if a.stopFilters != nil {
		a.stopFilters()
		a.stopFilters = nil
	}
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close session cache")
	}
	a.cache = nil
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "enrollsync",
		Short:         "Administrative client for the school management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := LoadConfig()
			if err != nil {
				return err
			}
			setupLogging(conf.LogLevel)
			return a.open(conf)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newReconcileCommand(a),
		newStudentCommand(a),
		newSearchCommand(a),
		newFeesCommand(a),
		newTransactionsCommand(a),
		newWhoAmICommand(a),
		newLogoutCommand(a),
		newValidateStudentCommand(),
	)
	return root
}

func main() {
	setupLogging(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	defer a.close()

	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command Failed")
		os.Stderr.WriteString(UserMessage(err) + "\n")
		a.close()
		stop()
		os.Exit(1)
	}
}
