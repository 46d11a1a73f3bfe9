package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/choirhub/choir-api/docs"
	v1 "github.com/choirhub/choir-api/internal/api/handler/v1"
	"github.com/choirhub/choir-api/internal/api/middleware"
	"github.com/choirhub/choir-api/internal/config"
	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/metrics"
	"github.com/choirhub/choir-api/internal/repository"
	"github.com/choirhub/choir-api/internal/repository/dao"
	"github.com/choirhub/choir-api/internal/service"
)

const basePath = "/api/v1"

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Feed   *v1.FeedHandler

	limiter middleware.Limiter
}

type repositories struct {
	users         *repository.UserRepository
	events        *repository.EventRepository
	permissions   *repository.PermissionRepository
	attendances   *repository.AttendanceRepository
	announcements *repository.AnnouncementRepository
	songs         *repository.SongRepository
	contributions *repository.ContributionRepository
}

type handlers struct {
	auth          *v1.AuthHandler
	user          *v1.UserHandler
	attendance    *v1.AttendanceHandler
	permission    *v1.PermissionHandler
	event         *v1.EventHandler
	announcement  *v1.AnnouncementHandler
	song          *v1.SongHandler
	contribution  *v1.ContributionHandler
	feed          *v1.FeedHandler
	health        *v1.HealthHandler
	userGetter    middleware.UserGetter
	authenticator *middleware.Authenticator
}

// NewServer wires every layer on top of db. rdb may be nil, rate limiting
// then stays in process.
func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:  conf,
		Router:  engine,
		Feed:    v1.NewFeedHandler(conf.CORSDomains),
		limiter: middleware.NewMemoryLimiter(),
	}
	if rdb != nil {
		s.limiter = middleware.NewRedisLimiter(rdb)
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(initRepositories(db), healthChecks(db, rdb)))

	return s
}

func initRepositories(db *gorm.DB) repositories {
	return repositories{
		users:         repository.NewUserRepository(dao.NewUserDAO(db)),
		events:        repository.NewEventRepository(dao.NewEventDAO(db)),
		permissions:   repository.NewPermissionRepository(dao.NewPermissionDAO(db)),
		attendances:   repository.NewAttendanceRepository(dao.NewAttendanceDAO(db)),
		announcements: repository.NewAnnouncementRepository(dao.NewAnnouncementDAO(db)),
		songs:         repository.NewSongRepository(dao.NewSongDAO(db)),
		contributions: repository.NewContributionRepository(dao.NewContributionDAO(db)),
	}
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]v1.HealthCheck {
	checks := map[string]v1.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	return checks
}

func (s *Server) initHandlers(repos repositories, checks map[string]v1.HealthCheck) handlers {
	userSvc := service.NewUserService(repos.users)
	authSvc := service.NewAuthService(repos.users)
	eventSvc := service.NewEventService(repos.events, repos.attendances, s.Feed, s.Config.Location())
	permissionSvc := service.NewPermissionService(repos.permissions)
	attendanceSvc := service.NewAttendanceService(repos.attendances, repos.users, repos.events, repos.permissions, s.Feed)
	announcementSvc := service.NewAnnouncementService(repos.announcements, s.Feed)
	songSvc := service.NewSongService(repos.songs)
	contributionSvc := service.NewContributionService(repos.contributions, repos.users)

	return handlers{
		auth:          v1.NewAuthHandler(s.Config.API, authSvc),
		user:          v1.NewUserHandler(userSvc),
		attendance:    v1.NewAttendanceHandler(attendanceSvc),
		permission:    v1.NewPermissionHandler(permissionSvc),
		event:         v1.NewEventHandler(eventSvc),
		announcement:  v1.NewAnnouncementHandler(announcementSvc),
		song:          v1.NewSongHandler(songSvc),
		contribution:  v1.NewContributionHandler(contributionSvc),
		feed:          s.Feed,
		health:        v1.NewHealthHandler(checks),
		userGetter:    userSvc,
		authenticator: middleware.NewAuthenticator(s.Config.API.JWTSigningKey),
	}
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.Logger("/", "/metrics"))
	s.Router.Use(middleware.Metrics())
	s.Router.Use(middleware.ConfigCORS(s.Config.CORSDomains))
	s.Router.Use(middleware.RateLimit(s.limiter, middleware.NewMemoryLimiter(), s.Config.RateLimitPerMinute))
}

func (s *Server) MountHandlers(h handlers) {
	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", h.auth.HandleSignup)
		auth.POST("/auth/login", h.auth.HandleLogin)
	}

	member := s.Router.Group(basePath, h.authenticator.VerifyJWT(), middleware.RequireApproved(h.userGetter))
	admin := member.Group("", middleware.RequireAdminTier())
	approver := member.Group("", middleware.RequireRoles(domain.ApproverRoles...))

	{
		member.GET("/users/me", h.user.HandleGetMe)
		member.PUT("/users/me", h.user.HandleUpdateMe)
		member.GET("/users/:userID", h.user.HandleGetUser)
		admin.GET("/users", h.user.HandleListUsers)
		approver.PUT("/users/:userID/approve", h.user.HandleApproveUser)
		approver.PUT("/users/:userID/reject", h.user.HandleRejectUser)
		approver.PUT("/users/:userID/role", h.user.HandleUpdateRole)
		approver.DELETE("/users/:userID", h.user.HandleDeleteUser)
	}

	{
		member.GET("/attendances/me", h.attendance.HandleGetMyAttendance)
		member.GET("/attendances/summary/:userID", h.attendance.HandleGetAttendanceSummary)
		admin.POST("/attendances/event/:eventID", h.attendance.HandleSaveAttendance)
		admin.GET("/attendances/event/:eventID", h.attendance.HandleGetAttendanceByEvent)
		admin.GET("/attendances/all", h.attendance.HandleGetAllAttendances)
		admin.GET("/attendances/detailed", h.attendance.HandleGetDetailedAttendances)
		admin.GET("/attendances/summaries", h.attendance.HandleGetAllAttendanceSummaries)
	}

	{
		member.POST("/permissions", h.permission.HandleCreatePermission)
		member.GET("/permissions/me", h.permission.HandleGetMyPermissions)
		member.DELETE("/permissions/:permissionID", h.permission.HandleDeletePermission)
		admin.GET("/permissions", h.permission.HandleGetAllPermissions)
		admin.GET("/permissions/active/:date", h.permission.HandleGetActivePermissions)
		admin.PUT("/permissions/:permissionID/status", h.permission.HandleUpdatePermissionStatus)
	}

	{
		member.GET("/events", h.event.HandleListEvents)
		member.GET("/events/:eventID", h.event.HandleGetEvent)
		admin.GET("/events/all", h.event.HandleListAllEvents)
		admin.POST("/events/sweep", h.event.HandleSweepEvents)
		admin.POST("/events", h.event.HandleCreateEvent)
		admin.PUT("/events/:eventID", h.event.HandleUpdateEvent)
		admin.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
	}

	{
		member.GET("/announcements", h.announcement.HandleListAnnouncements)
		member.GET("/announcements/:announcementID", h.announcement.HandleGetAnnouncement)
		admin.POST("/announcements", h.announcement.HandleCreateAnnouncement)
		admin.PUT("/announcements/:announcementID", h.announcement.HandleUpdateAnnouncement)
		admin.DELETE("/announcements/:announcementID", h.announcement.HandleDeleteAnnouncement)
	}

	{
		member.GET("/songs", h.song.HandleListSongs)
		member.GET("/songs/:songID", h.song.HandleGetSong)
		admin.POST("/songs", h.song.HandleCreateSong)
		admin.PUT("/songs/:songID", h.song.HandleUpdateSong)
		admin.DELETE("/songs/:songID", h.song.HandleDeleteSong)
	}

	{
		member.GET("/contributions", h.contribution.HandleListContributions)
		member.GET("/contributions/user/:userID", h.contribution.HandleGetUserContributions)
		admin.GET("/contributions/:contributionID", h.contribution.HandleGetContribution)
		admin.POST("/contributions", h.contribution.HandleCreateContribution)
		admin.PUT("/contributions/:contributionID", h.contribution.HandleUpdateContribution)
		admin.DELETE("/contributions/:contributionID", h.contribution.HandleDeleteContribution)
		admin.POST("/contributions/:contributionID/payments", h.contribution.HandleAddPayment)
		admin.PUT("/contributions/:contributionID/payments/:userID/mark-paid", h.contribution.HandleMarkAsPaid)
	}

	member.GET("/feed/ws", h.feed.HandleWebSocket)

	s.Router.GET("/", h.health.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Choir API"
	docs.SwaggerInfo.Description = "Membership, attendance and finances of the choir."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.Feed.Run(ctx)

	s.Config.Watch(func(conf *config.AppConfig) {
		zap.L().Info("config reloaded",
			zap.Strings("cors_domains", conf.CORSDomains()),
			zap.Int("rate_limit_per_minute", conf.RateLimitPerMinute()),
		)
	})

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}
