package handler

import (
	"errors"
	"net/http"
	"strconv"

	"questserver/internal/interfaces"
	"questserver/internal/models"
	"questserver/internal/services"
	"questserver/internal/verification"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

const msgNoTasks = "No tasks found for this quest_id"

type groupTask struct {
	container *do.Injector
}

func (gr *groupTask) GetTasks(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	addr, err := ResolveClaimant(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	questID, err := strconv.ParseInt(c.QueryParam("quest_id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid))
	}

	tasks, err := serviceTask.GetUserTasks(ctx, questID, addr)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	if len(tasks) == 0 {
		return c.JSON(http.StatusOK, models.QueryError{Error: msgNoTasks})
	}

	return c.JSON(http.StatusOK, tasks)
}

func (gr *groupTask) GetCompletedQuests(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	addr, err := ResolveClaimant(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	questIDs, err := serviceTask.GetCompletedQuests(ctx, addr)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, questIDs)
}

func (gr *groupTask) Verify(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.VerifyTaskRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	result, err := serviceTask.VerifyTask(c.Request().Context(), payload.TaskID, payload.Address)
	return verifyResponse(c, result, err)
}

func (gr *groupTask) VerifyAt(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	addr, err := ResolveClaimant(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	taskID, err := strconv.ParseInt(c.QueryParam("task_id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid task_id"), errorx.Invalid))
	}

	result, err := serviceTask.VerifyTaskAt(ctx, "quests/"+c.Param("*"), taskID, addr)
	return verifyResponse(c, result, err)
}

// verifyResponse writes every outcome as a bare VerifyResult. Infrastructure failures get a
// neutral result and an error code, so neither upstream nor store error text reaches the client.
func verifyResponse(c echo.Context, result *models.VerifyResult, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result)
	case verification.IsExternalCheckFailed(err):
		return c.JSON(http.StatusServiceUnavailable, models.VerifyResult{Code: services.CODE_EXTERNAL_CHECK_FAILED})
	case errors.Is(err, interfaces.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, models.VerifyResult{Code: services.CODE_STORE_UNAVAILABLE})
	}
	return httpx.RestAbort(c, nil, err)
}
