package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/ticket_service/internal/config"
	"github.com/Skotchmaster/ticket_service/internal/events"
	"github.com/Skotchmaster/ticket_service/internal/httpserver"
	"github.com/Skotchmaster/ticket_service/internal/logging"
	"github.com/Skotchmaster/ticket_service/internal/mailer"
	authmw "github.com/Skotchmaster/ticket_service/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/ticket_service/internal/middleware/logging"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/search"
	"github.com/Skotchmaster/ticket_service/internal/service"
	"github.com/Skotchmaster/ticket_service/internal/tokens"
	"github.com/Skotchmaster/ticket_service/pkg/db"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	smtpSender, err := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		log.Fatalf("smtp init error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	} else {
		logger.Warn("KAFKA_BROKERS not set, event publishing disabled")
	}

	var ticketSearch *search.Tickets
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		ticketSearch = search.NewTickets(esClient)
	} else {
		logger.Warn("ES_URL not set, ticket search disabled")
	}

	gormRepo := repo.GormRepo{DB: gormDB}
	codec := &tokens.Codec{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	authSvc := &service.AuthService{
		Repo:   gormRepo,
		Codec:  codec,
		Mailer: smtpSender,
		Events: producer,
	}
	ticketSvc := &service.TicketService{
		Repo:   gormRepo,
		Search: ticketSearch,
		Events: producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.Recover())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Users:   &httpserver.UserHTTP{Svc: authSvc},
		Tickets: &httpserver.TicketHTTP{Svc: ticketSvc},
		Guard:   authmw.NewGuard(codec, gormRepo),
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
