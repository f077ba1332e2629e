package handler

import (
	"encoding/json"
	"net/http"

	"questserver/internal/models"
	"questserver/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

func (gr *groupAdmin) CreateTask(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.CreateTaskRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	task, err := serviceTask.CreateTask(c.Request().Context(), &payload)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, models.CreatedTask{ID: task.ID})
}

func (gr *groupAdmin) CreateTwitterRw(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.CreateTwitterRwRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	task, err := serviceTask.CreateTwitterRwTask(c.Request().Context(), &payload)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, models.CreatedTask{ID: task.ID})
}

func (gr *groupAdmin) UpdateTask(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	// decoded with encoding/json so absent keys and explicit nulls stay distinguishable
	var payload models.UpdateTaskRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	err = serviceTask.UpdateTask(c.Request().Context(), payload.ID, &payload.TaskPatch)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Task updated successfully"})
}

func (gr *groupAdmin) UpdateConfig(c echo.Context) error {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.UpdateConfigRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	err = serviceConfig.SetConfig(c.Request().Context(), payload.Key, payload.Value)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Config updated successfully"})
}
