package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/makersnearby/makersnearby-backend/api/controllers"
	"github.com/makersnearby/makersnearby-backend/api/middleware"
	"github.com/makersnearby/makersnearby-backend/internal/ingest"
	"github.com/makersnearby/makersnearby-backend/internal/notifications"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/internal/publish"
	"github.com/makersnearby/makersnearby-backend/internal/wizard"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/db"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
	"github.com/makersnearby/makersnearby-backend/pkg/redis"
	"github.com/makersnearby/makersnearby-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	profilesService profiles.Service,
	publishService publish.Service,
	ingestService *ingest.Service,
	notificationsService notifications.Service,
	wizardSessions *wizard.Sessions,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext(logg))

		r.Route("/profiles/me", func(r chi.Router) {
			r.Get("/draft", controllers.GetMyProfile(profilesService, logg))
			r.Put("/draft", controllers.UpdateMyProfile(profilesService, logg))
			r.Post("/publish", controllers.PublishMyProfile(publishService, logg))
			r.Post("/unpublish", controllers.UnpublishMyProfile(profilesService, logg))

			r.Route("/draft/gallery", func(r chi.Router) {
				r.Get("/", controllers.ListGallery(profilesService, logg))
				r.Post("/", controllers.UploadGallery(ingestService, logg))
				r.Route("/{assetId}", func(r chi.Router) {
					r.Post("/featured", controllers.SetGalleryFeatured(profilesService, logg))
					r.Delete("/", controllers.DeleteGalleryAsset(profilesService, logg))
				})
			})
		})

		r.Route("/wizard", func(r chi.Router) {
			r.Post("/", controllers.StartWizard(wizardSessions, logg))
			r.Post("/next", controllers.WizardNext(wizardSessions, logg))
			r.Post("/back", controllers.WizardBack(wizardSessions, logg))
			r.Put("/form", controllers.UpdateWizardForm(wizardSessions, logg))
			r.Post("/save-exit", controllers.WizardSaveAndExit(wizardSessions, logg))
			r.Post("/publish", controllers.WizardPublish(wizardSessions, logg))
			r.Delete("/", controllers.CloseWizard(wizardSessions, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
