package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kdimtricp/replaycut/internal/analysis"
	"github.com/kdimtricp/replaycut/internal/clipper"
	"github.com/kdimtricp/replaycut/internal/models"
	"github.com/kdimtricp/replaycut/internal/pipeline"
	"github.com/kdimtricp/replaycut/internal/store"
	"github.com/kdimtricp/replaycut/internal/storage"
)

type App struct {
	Storage       storage.Storage
	Videos        *store.VideoRepo
	History       *store.HistoryRepo
	Gallery       *store.GalleryRepo
	Pipeline      *pipeline.Pipeline
	MaxUploadSize int64
	Logger        zerolog.Logger

	mu   sync.Mutex
	runs map[string]*activeRun
}

type activeRun struct {
	run     *pipeline.Run
	videoID string
	cancel  context.CancelFunc
}

func (app *App) trackRun(videoID string, run *pipeline.Run, cancel context.CancelFunc) string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.runs == nil {
		app.runs = make(map[string]*activeRun)
	}

	// Re-uploading or re-analyzing the same video abandons any outstanding
	// run for it; mid-run pause/resume is not supported.
	for id, ar := range app.runs {
		if ar.videoID == videoID && ar.run.State() != pipeline.StateCompleted && ar.run.State() != pipeline.StateError {
			ar.cancel()
			delete(app.runs, id)
		}
	}

	runID := uuid.New().String()
	app.runs[runID] = &activeRun{run: run, videoID: videoID, cancel: cancel}
	return runID
}

func (app *App) lookupRun(runID string) *activeRun {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.runs[runID]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to get file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !validMediaType(contentType, header.Filename) {
		writeError(w, http.StatusBadRequest, "only video or audio files are allowed")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	lastModified, _ := strconv.ParseInt(r.FormValue("lastModified"), 10, 64)
	if lastModified == 0 {
		lastModified = time.Now().UnixMilli()
	}

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:     header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		LastModified: lastModified,
	})
	if err != nil {
		app.Logger.Error().Err(err).Msg("failed to save uploaded file")
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	video := models.NewVideo(title, filename, header.Filename, contentType, header.Size, lastModified)
	if err := app.Videos.Insert(r.Context(), video); err != nil {
		app.Storage.DeleteFile(filename)
		writeError(w, http.StatusInternalServerError, "failed to save video information")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       video.ID,
		"identity": video.Identity(),
	})
}

func validMediaType(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "video/") || clipper.IsAudioOnly(filename, contentType) {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".mov", ".mkv", ".webm", ".avi":
		return true
	}
	return false
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.Videos.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (app *App) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	video, err := app.Videos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	videoPath, err := app.Storage.Path(video.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored file unavailable")
		return
	}

	// The run outlives this request; it is cancelled only when the video is
	// reanalyzed or re-uploaded.
	ctx, cancel := context.WithCancel(context.Background())
	run := app.Pipeline.Start(ctx, video, videoPath)
	runID := app.trackRun(video.ID, run, cancel)

	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID})
}

func (app *App) RunStatusHandler(w http.ResponseWriter, r *http.Request) {
	ar := app.lookupRun(chi.URLParam(r, "id"))
	if ar == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	resp := map[string]any{
		"state":    ar.run.State(),
		"progress": ar.run.Progress(),
		"cacheHit": ar.run.CacheHit(),
	}

	if err := ar.run.Err(); err != nil {
		resp["error"] = err.Error()
		if analysis.IsAuthRequired(err) {
			resp["reauthRequired"] = true
		}
	}
	if warning := ar.run.Warning(); warning != "" {
		resp["warning"] = warning
	}
	if result := ar.run.Result(); result != nil {
		resp["result"] = result
	}

	writeJSON(w, http.StatusOK, resp)
}

func (app *App) HighlightsHandler(w http.ResponseWriter, r *http.Request) {
	video, err := app.Videos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	result, err := app.History.Get(r.Context(), video.Identity())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "video has not been analyzed")
		return
	}

	highlights := pipeline.FilterByJersey(result.Highlights, r.URL.Query().Get("jersey"))
	writeJSON(w, http.StatusOK, map[string]any{
		"highlights": highlights,
		"summary":    result.Summary,
	})
}

func (app *App) ClipHandler(w http.ResponseWriter, r *http.Request) {
	ar := app.lookupRun(chi.URLParam(r, "id"))
	if ar == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	result := ar.run.Result()
	if result == nil {
		writeError(w, http.StatusConflict, "run has not completed")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(result.Highlights) {
		writeError(w, http.StatusNotFound, "no such highlight")
		return
	}

	h := result.Highlights[index]
	if !h.HasClip() {
		writeError(w, http.StatusNotFound, "no clip was produced for this highlight")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.ClipName+`"`)
	w.Write(h.ClipData)
}

type gallerySaveRequest struct {
	RunID string `json:"runId"`
	Index int    `json:"index"`
}

func (app *App) GallerySaveHandler(w http.ResponseWriter, r *http.Request) {
	var req gallerySaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ar := app.lookupRun(req.RunID)
	if ar == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	result := ar.run.Result()
	if result == nil {
		writeError(w, http.StatusConflict, "run has not completed")
		return
	}
	if req.Index < 0 || req.Index >= len(result.Highlights) {
		writeError(w, http.StatusNotFound, "no such highlight")
		return
	}

	h := result.Highlights[req.Index]
	if !h.HasClip() {
		writeError(w, http.StatusConflict, "highlight has no clip to save")
		return
	}

	video, err := app.Videos.GetByID(r.Context(), ar.videoID)
	if err != nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	entry := store.GalleryEntry{
		Identity:         video.Identity(),
		TimestampSeconds: h.TimestampSeconds,
		FileName:         video.OriginalName,
		Description:      h.Description,
		ClipName:         h.ClipName,
		ClipData:         h.ClipData,
		CreatedAt:        time.Now(),
	}
	if err := app.Gallery.Save(r.Context(), entry); err != nil {
		app.Logger.Error().Err(err).Str("identity", entry.Identity).Msg("gallery save failed")
		var se *store.StorageError
		if errors.As(err, &se) {
			writeError(w, http.StatusInsufficientStorage, "storage full or unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save clip")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (app *App) GalleryListHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.Gallery.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gallery")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (app *App) GalleryClipHandler(w http.ResponseWriter, r *http.Request) {
	identity, timestamp, ok := galleryKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid gallery key")
		return
	}

	entry, err := app.Gallery.Get(r.Context(), identity, timestamp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load clip")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "clip not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+entry.ClipName+`"`)
	w.Write(entry.ClipData)
}

func (app *App) GalleryDeleteHandler(w http.ResponseWriter, r *http.Request) {
	identity, timestamp, ok := galleryKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid gallery key")
		return
	}

	if err := app.Gallery.Delete(r.Context(), identity, timestamp); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete clip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func galleryKey(r *http.Request) (string, float64, bool) {
	identity := chi.URLParam(r, "identity")
	timestamp, err := strconv.ParseFloat(chi.URLParam(r, "timestamp"), 64)
	if identity == "" || err != nil {
		return "", 0, false
	}
	return identity, timestamp, true
}
