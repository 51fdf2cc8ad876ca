package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/kdimtricp/replaycut/internal/analysis"
	"github.com/kdimtricp/replaycut/internal/api"
	"github.com/kdimtricp/replaycut/internal/clipper"
	"github.com/kdimtricp/replaycut/internal/logging"
	"github.com/kdimtricp/replaycut/internal/pipeline"
	"github.com/kdimtricp/replaycut/internal/sampler"
	"github.com/kdimtricp/replaycut/internal/storage"
	"github.com/kdimtricp/replaycut/internal/store"
)

func main() {
	logging.Init(os.Getenv("LOG_LEVEL") == "debug")
	logger := logging.WithComponent("server")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	maxUploadSize := os.Getenv("MAX_UPLOAD_SIZE")
	if maxUploadSize == "" {
		maxUploadSize = "104857600"
	}
	maxSize, err := strconv.ParseInt(maxUploadSize, 10, 64)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid MAX_UPLOAD_SIZE")
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var dbConfig store.Config
	dbConfig.Type = dbType

	if dbType == "postgres" {
		dbConfig.Host = os.Getenv("DB_HOST")
		if dbConfig.Host == "" {
			dbConfig.Host = "localhost"
		}

		dbPortStr := os.Getenv("DB_PORT")
		if dbPortStr == "" {
			dbPortStr = "5432"
		}
		dbPort, err := strconv.Atoi(dbPortStr)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid DB_PORT")
		}
		dbConfig.Port = dbPort

		dbConfig.User = os.Getenv("DB_USER")
		if dbConfig.User == "" {
			dbConfig.User = "replaycut"
		}

		dbConfig.Password = os.Getenv("DB_PASSWORD")
		if dbConfig.Password == "" {
			dbConfig.Password = "replaycut_dev"
		}

		dbConfig.Name = os.Getenv("DB_NAME")
		if dbConfig.Name == "" {
			dbConfig.Name = "replaycut"
		}
	} else {
		dbConfig.SQLitePath = os.Getenv("DB_PATH")
		if dbConfig.SQLitePath == "" {
			dbConfig.SQLitePath = "./replaycut.db"
		}
	}

	localStorage, err := storage.NewLocalStorage(uploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	db, err := store.NewDB(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set; analysis requests will fail until a key is provided")
	}

	frameCount := sampler.DefaultFrameCount
	if s := os.Getenv("FRAME_COUNT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			frameCount = n
		}
	}

	frameSampler, err := sampler.New(logging.WithComponent("sampler"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize frame sampler")
	}
	client := analysis.NewClient(apiKey, logging.WithComponent("analysis"))
	engine := clipper.Shared(logging.WithComponent("clipper"))
	history := store.NewHistoryRepo(db)

	app := &api.App{
		Storage:       localStorage,
		Videos:        store.NewVideoRepo(db),
		History:       history,
		Gallery:       store.NewGalleryRepo(db),
		Pipeline:      pipeline.NewWithFrameCount(frameSampler, client, engine, history, frameCount, logging.WithComponent("pipeline")),
		MaxUploadSize: maxSize,
		Logger:        logger,
	}

	router := api.NewRouter(app)

	logger.Info().
		Str("port", port).
		Str("upload_dir", uploadDir).
		Str("db_type", dbType).
		Int64("max_upload_size", maxSize).
		Int("frame_count", frameCount).
		Msg("server starting")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
