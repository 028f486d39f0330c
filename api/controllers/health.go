package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/makersnearby/makersnearby-backend/api/responses"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/db"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
	"github.com/makersnearby/makersnearby-backend/pkg/redis"
	"github.com/makersnearby/makersnearby-backend/pkg/storage/gcs"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MakersNearby-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency and reports which are up. Nil
// pingers are reported as skipped so partial deployments stay observable.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MakersNearby-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, ping func(context.Context) error) {
			if ping == nil {
				checks[name] = "skipped"
				return
			}
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			probe("db", dbP.Ping)
		} else {
			probe("db", nil)
		}
		if redisP != nil {
			probe("redis", redisP.Ping)
		} else {
			probe("redis", nil)
		}
		if gcsP != nil {
			probe("gcs", gcsP.Ping)
		} else {
			probe("gcs", nil)
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "one or more dependencies are unavailable").
				WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
