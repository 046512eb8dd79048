package handler

import (
	"errors"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

var statusByKind = map[service.Kind]int{
	service.KindNotFound:   http.StatusNotFound,
	service.KindForbidden:  http.StatusForbidden,
	service.KindValidation: http.StatusBadRequest,
	service.KindConflict:   http.StatusConflict,
}

// respondError переводит ошибку сервиса в HTTP-ответ.
// Неожиданные ошибки логируются, клиент видит только общее сообщение.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindUnexpected {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": se.Message}
	var merr *multierror.Error
	if errors.As(se.Err, &merr) {
		details := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			details = append(details, e.Error())
		}
		body["details"] = details
	}
	c.JSON(statusByKind[se.Kind], body)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}
