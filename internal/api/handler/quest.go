package handler

import (
	"errors"
	"net/http"
	"strconv"

	"questserver/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupQuest struct {
	container *do.Injector
}

func (gr *groupQuest) GetQuest(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid id"), errorx.Invalid))
	}

	quest, err := serviceQuest.GetQuest(c.Request().Context(), id)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, quest)
}

func (gr *groupQuest) GetQuests(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quests, err := serviceQuest.GetQuests(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, quests)
}

func (gr *groupQuest) GetQuestParticipants(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	questID, err := strconv.ParseInt(c.QueryParam("quest_id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid))
	}

	participants, err := serviceQuest.GetQuestParticipants(c.Request().Context(), questID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, participants)
}

func (gr *groupQuest) GetTrendingQuests(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	top, err := serviceQuest.GetTopQuests(c.Request().Context(), limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, top)
}
