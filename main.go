package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindwell/config"
	_ "mindwell/docs"
	"mindwell/internal/repository"
	"mindwell/internal/service"
	"mindwell/internal/storage"
	"mindwell/internal/transport/rest"
	"mindwell/pkg/cache"
	"mindwell/pkg/database"
	"mindwell/pkg/events"
	"mindwell/pkg/logger"
	"mindwell/pkg/metrics"
	"mindwell/pkg/search"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MindWell API
// @version 1.0
// @description API платформы онлайн-психотерапии: запись к специалистам, расписание, анкеты клиентов

// @contact.name API Support
// @contact.email support@mindwell.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("Не удалось загрузить конфигурацию", zap.Error(err))
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          cfg.Name + "@" + cfg.Version,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		})
		if err != nil {
			log.Warn("Не удалось инициализировать Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	metrics.Register()

	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	log.Info("Запуск миграций базы данных")
	if err := database.RunMigrations(db, "./migrations", log); err != nil {
		log.Fatal("Ошибка при выполнении миграций", zap.Error(err))
	}
	log.Info("Миграции успешно выполнены")

	var fileStorage storage.FileStorage
	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(cfg.S3, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать S3 хранилище", zap.Error(err))
		}
		fileStorage = s3Storage
		log.Info("S3 хранилище успешно инициализировано", zap.String("endpoint", cfg.S3.Endpoint))
	} else {
		log.Warn("S3 хранилище не настроено, загрузка файлов будет недоступна")
	}

	var slotCache cache.Cache
	if cfg.Redis.Addr != "" {
		slotCache, err = cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn("Не удалось подключиться к Redis, кэш слотов отключён", zap.Error(err))
			slotCache = nil
		} else {
			defer slotCache.Close()
			log.Info("Redis кэш слотов подключён", zap.String("addr", cfg.Redis.Addr))
		}
	} else {
		log.Warn("Redis не настроен, слоты будут считаться на каждый запрос")
	}

	var producer events.Producer
	if cfg.Kafka.Broker != "" {
		producer, err = events.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Warn("Не удалось подключиться к Kafka, события не будут публиковаться", zap.Error(err))
			producer = nil
		} else {
			defer producer.Close()
			log.Info("Kafka продюсер подключён", zap.String("topic", cfg.Kafka.Topic))
		}
	}

	var searchClient search.Client
	if cfg.Elastic.URL != "" {
		searchClient, err = search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn("Не удалось подключиться к Elasticsearch, поиск специалистов отключён", zap.Error(err))
			searchClient = nil
		} else {
			log.Info("Elasticsearch подключён", zap.String("index", cfg.Elastic.Index))
		}
	}

	repos := repository.NewRepositories(db)

	services := service.NewServices(service.Deps{
		Repos:       repos,
		Logger:      log,
		Config:      cfg,
		FileStorage: fileStorage,
		Cache:       slotCache,
		Producer:    producer,
		Search:      searchClient,
	})

	reminderCtx, stopReminder := context.WithCancel(context.Background())
	defer stopReminder()
	go services.Reminder.Run(reminderCtx)

	handler := rest.NewHandler(services, log, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	router.GET("/swagger.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.File("./docs/swagger.json")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	log.Info("Сервер запущен", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Выключение сервера...")

	stopReminder()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Ошибка при остановке сервера", zap.Error(err))
	}

	log.Info("Сервер успешно остановлен")
}
