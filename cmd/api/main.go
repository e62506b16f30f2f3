// Package main (in api-subfolder) provides launch of the upload API with its notification sinks
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/appconfig"
	"github.com/UnendingLoop/WebPUploader/internal/imageproc"
	"github.com/UnendingLoop/WebPUploader/internal/metrics"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/UnendingLoop/WebPUploader/internal/notify"
	"github.com/UnendingLoop/WebPUploader/internal/pipeline"
	"github.com/UnendingLoop/WebPUploader/internal/service"
	"github.com/UnendingLoop/WebPUploader/internal/storage"
	"github.com/UnendingLoop/WebPUploader/internal/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env loaded (%v), using process environment", err)
	}
	cfg := appconfig.Load(appConfig)

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// драйвер хранилища проверяем сразу, клиенты создаются на каждый батч
	factory, err := storage.NewFactory(cfg.StorageDriver)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	enc, err := newEncoder(cfg.Encoder)
	if err != nil {
		log.Fatalf("Failed to init encoder: %v", err)
	}
	if cfg.Encoder == appconfig.EncoderJPEG {
		log.Println("ENCODER=jpeg: object keys end in .jpg instead of the .webp layout")
	}

	observer, err := metrics.NewPrometheusObserver("", nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	// нотификации: лог + websocket + опционально kafka/redis
	hub := notify.NewHub()
	sinks, closers := buildSinks(ctx, cfg, hub)

	uploader := pipeline.NewUploader(enc, imageproc.NewThumbnailer(cfg.ThumbStrategy), sinks,
		pipeline.WithObserver(observer),
		pipeline.WithRetryStrategy(retry.Strategy{
			Attempts: cfg.UploadAttempts,
			Delay:    cfg.RetryDelay,
			Backoff:  2,
		}),
	)
	// создаем экземпляр сервиса
	svc := service.NewUploadService(uploader, factory, cfg.Concurrency)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewUploadHandler(svc, hub, cfg.Storage, cfg.Defaults)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/images/upload", handlers.UploadImages)   // multipart с файлами
	engine.POST("/images/tensors", handlers.UploadTensors) // сырые тензоры
	engine.GET("/ws", handlers.Subscribe)                  // нотификации по client_id
	engine.GET("/metrics", func(c *ginext.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия
	<-ctx.Done()

	shutdown(srv, hub, closers)
	log.Println("Exiting app...")
}

func shutdown(srv *http.Server, hub *notify.Hub, closers []namedCloser) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
	}
	log.Println("HTTP-server stopped.")

	hub.Close()
	log.Println("Websocket sessions closed.")

	for _, c := range closers {
		if err := c.close(); err != nil {
			log.Printf("Failed to close %s: %v", c.name, err)
			continue
		}
		log.Printf("%s connection closed.", c.name)
	}
}
