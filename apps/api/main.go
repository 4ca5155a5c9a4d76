package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	dig_container "github.com/trezcool/cheti/apps/api/di/dig"
	echoapi "github.com/trezcool/cheti/apps/api/echo"
	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/progression"
)

type app struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	DBLogger core.Logger `name:"dbLogger"`
	CloseDB  dig_container.DBCloser
	Server   *echoapi.Server
	Progress *progression.Service
}

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatal(err)
	}
}

func run(a app) error {
	a.Logger.Info(fmt.Sprintf("Application initializing : version %q, database %q", a.Conf.Build, a.Conf.Database.Engine))
	defer a.Logger.Info("Application stopped")

	core.ParseEmailTemplates(a.Conf, a.Logger)

	defer func() {
		if err := a.CloseDB(); err != nil {
			a.DBLogger.Error("closing database: "+err.Error(), err)
		}
	}()

	startDebugServer(a.Conf, a.Logger)

	go a.Server.Start()

	err := waitForShutdown(a.Conf, a.Logger, a.Server)
	a.Progress.Wait() // pending certificate & completion emails
	return err
}

// startDebugServer serves /debug/pprof and /debug/vars (expvar) on the debug host.
func startDebugServer(conf *core.Config, logger core.Logger) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}

// waitForShutdown blocks until the server fails or is asked to stop, then drains outstanding requests.
func waitForShutdown(conf *core.Config, logger core.Logger, server *echoapi.Server) error {
	select {
	case err := <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
		return nil
	}
}
