package handler

import (
	"net/http"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/middleware"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MessageResponse - ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse - ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError отдает ошибку клиенту по ее виду; внутренние ошибки логируются
// и уходят в Sentry, клиент видит только общее сообщение
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		entry := log.WithError(err).WithField("path", c.Request.URL.Path)
		if id, ok := c.Get(middleware.UserIDKey); ok {
			entry = entry.WithField("user_id", id)
		}
		entry.Error("internal error")

		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("path", c.FullPath())
			scope.SetRequest(c.Request)
			sentry.CaptureException(err)
		})
	}
	c.JSON(kind.HTTPStatus(), ErrorResponse{Error: apperror.PublicMessage(err)})
}

// currentPrincipal возвращает Principal запроса или отвечает 401
func currentPrincipal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return auth.Principal{}, false
	}
	return p, true
}

// uuidParam парсит UUID из пути или отвечает 400
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + label + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
