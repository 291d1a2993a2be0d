package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/plotcrowd/fairval/internal/adapters/http/api"
	"github.com/plotcrowd/fairval/internal/adapters/http/swagger"
	app "github.com/plotcrowd/fairval/internal/app"
	"github.com/plotcrowd/fairval/internal/config"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("FAIRVAL_ADDR", ":8080")
			_ = os.Setenv("FAIRVAL_QUEUE_SIZE", "1000")
			_ = os.Setenv("FAIRVAL_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("FAIRVAL_ADDR")
				_ = os.Unsetenv("FAIRVAL_QUEUE_SIZE")
				_ = os.Unsetenv("FAIRVAL_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithWorkerCount(8),
					app.WithQueueSize(2000),
					app.WithDedupeSize(1000),
					app.WithRefreshCron(""),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server wiring", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			svc := app.New(app.WithWorkerCount(1), app.WithRefreshCron(""))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			apiServer := api.NewServer(svc, svc, 100)
			apiServer.Register(ctx, mux)

			srv := &http.Server{
				Addr:              ":0",
				Handler:           mux,
				ReadHeaderTimeout: time.Second,
			}

			convey.Convey("Then the server should carry the wired handler", func() {
				convey.So(srv.Handler, convey.ShouldEqual, mux)
			})
		})
	})
}
