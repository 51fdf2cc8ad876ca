package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/videos", app.UploadHandler)
		r.Get("/videos", app.ListVideosHandler)
		r.Post("/videos/{id}/analyze", app.AnalyzeHandler)
		r.Get("/videos/{id}/highlights", app.HighlightsHandler)

		r.Get("/runs/{id}", app.RunStatusHandler)
		r.Get("/runs/{id}/clips/{index}", app.ClipHandler)

		r.Post("/gallery", app.GallerySaveHandler)
		r.Get("/gallery", app.GalleryListHandler)
		r.Get("/gallery/{identity}/{timestamp}", app.GalleryClipHandler)
		r.Delete("/gallery/{identity}/{timestamp}", app.GalleryDeleteHandler)
	})

	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
