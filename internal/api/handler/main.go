package handler

import (
	"fmt"
	"net/http"

	"questserver/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

const Version = "1.4.0"

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == services.SERVER_MODE_DEBUG {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())
	r.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       60 * 60,
	}))

	r.GET("", Root)

	t := groupTask{cfg.Container}
	r.GET("/get_tasks", t.GetTasks, Claimant())
	r.GET("/get_completed_quests", t.GetCompletedQuests, Claimant())
	r.POST("/quests/verify", t.Verify)
	r.GET("/quests/verify", t.Verify)
	// legacy per-task routes, the path is the task's verify_endpoint
	r.GET("/quests/*", t.VerifyAt, Claimant())

	q := groupQuest{cfg.Container}
	r.GET("/get_quest", q.GetQuest)
	r.GET("/get_quests", q.GetQuests)
	r.GET("/get_quest_participants", q.GetQuestParticipants)
	r.GET("/get_trending_quests", q.GetTrendingQuests)

	a := groupAdmin{cfg.Container}
	routesAdmin := r.Group("/admin/tasks")
	{
		routesAdmin.POST("/create", a.CreateTask)
		routesAdmin.POST("/twitter_rw/create", a.CreateTwitterRw)
		routesAdmin.POST("/update", a.UpdateTask)
	}
	r.POST("/admin/config/update", a.UpdateConfig)

	return r, nil
}

func Root(c echo.Context) error {
	return c.String(http.StatusAccepted, fmt.Sprintf("quest-server v%s", Version))
}
