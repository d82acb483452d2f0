package app

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/catering/internal/adapters/httpserver"
	"github.com/phenrril/catering/internal/adapters/mail"
	"github.com/phenrril/catering/internal/adapters/prefs"
	"github.com/phenrril/catering/internal/adapters/repo/postgres"
	"github.com/phenrril/catering/internal/adapters/resize"
	"github.com/phenrril/catering/internal/config"
	"github.com/phenrril/catering/internal/domain"
	"github.com/phenrril/catering/internal/usecase"
	"github.com/phenrril/catering/internal/views"
)

type App struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	Tmpl        *template.Template
	CustomerUC  *usecase.CustomerUC
	NotifyUC    *usecase.NotifyUC
	AuthUC      *usecase.AuthUC
	PageSizes   domain.PageSizeStore
	Sessions    *httpserver.Sessions
	OAuthConfig *oauth2.Config
}

func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	custRepo := postgres.NewCustomerRepo(db)
	funcRepo := postgres.NewFunctionRepo(db)
	userRepo := postgres.NewUserRepo(db)

	var mailer domain.Mailer = mail.LogSender{}
	if cfg.SMTP.Configured() {
		mailer = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.FromName, cfg.SMTP.AllowedDomain)
	} else {
		log.Warn().Msg("SMTP not configured, email will only be logged")
	}

	a := &App{Cfg: cfg, DB: db}
	a.CustomerUC = &usecase.CustomerUC{
		Customers: custRepo,
		Functions: funcRepo,
		Pictures:  &usecase.PictureUC{Resizer: resize.Resizer{}},
	}
	a.NotifyUC = &usecase.NotifyUC{Customers: custRepo, Mailer: mailer, SiteName: cfg.SiteName, SelfOnly: cfg.Notify.SelfOnly}
	a.AuthUC = &usecase.AuthUC{Users: userRepo}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rdb, err := prefs.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, page sizes kept in cookies")
		} else {
			a.Redis = rdb
			a.PageSizes = prefs.NewRedisStore(rdb)
		}
	}

	a.Sessions = httpserver.NewSessions(cfg.Session.Secret, cfg.Session.TTL)
	a.Sessions.Secure = !cfg.IsDev()

	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret != "" {
		a.OAuthConfig = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		}
	}

	var tmpl *template.Template
	var err error
	if cfg.IsDev() {
		tmpl, err = template.New("layout").Funcs(httpserver.FuncMap()).ParseGlob("internal/views/*.html")
	} else {
		tmpl, err = template.New("layout").Funcs(httpserver.FuncMap()).ParseFS(views.FS, "*.html")
	}
	if err != nil {
		return nil, err
	}
	a.Tmpl = tmpl
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Options{
		Templates:       a.Tmpl,
		Customers:       a.CustomerUC,
		Notify:          a.NotifyUC,
		Auth:            a.AuthUC,
		Sessions:        a.Sessions,
		PageSizes:       a.PageSizes,
		OAuth:           a.OAuthConfig,
		Health:          a.health,
		SiteName:        a.Cfg.SiteName,
		DefaultPageSize: a.Cfg.DefaultPageSize,
	})
}

func (a *App) health(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Migrate() error {
	return postgres.Migrate(a.DB)
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
