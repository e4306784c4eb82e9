package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theta-web/internal/middleware"
	"github.com/iliyamo/theta-web/internal/service"
)

// Deadlines for the storage work behind one request.  Variables so tests
// can shorten them.
var (
	requestTimeout  = 5 * time.Second
	transferTimeout = 30 * time.Second
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

var statusByCode = map[string]int{
	service.CodeUnauthorized:      http.StatusUnauthorized,
	service.CodeValidationFailed:  http.StatusBadRequest,
	service.CodeDuplicateUsername: http.StatusBadRequest,
	service.CodeSpamRejected:      http.StatusBadRequest,
	service.CodeCaptchaRequired:   http.StatusBadRequest,
	service.CodeCaptchaFailed:     http.StatusBadRequest,
	service.CodeInvalidFileType:   http.StatusBadRequest,
	service.CodeFileTooLarge:      http.StatusBadRequest,
	service.CodeNotFound:          http.StatusNotFound,
	service.CodeInvalidTransition: http.StatusConflict,
	service.CodeConflict:          http.StatusConflict,
	service.CodeStorageError:      http.StatusInternalServerError,
}

// writeError maps err to a status and JSON body.  Server errors carry the
// wrapped detail only outside production.
func writeError(c echo.Context, err error, production bool) error {
	c.Set(middleware.ContextKeyError, err)

	se, ok := service.AsError(err)
	if !ok {
		msg := "Internal server error"
		if !production {
			msg = err.Error()
		}
		return c.JSON(http.StatusInternalServerError, errorBody{Error: msg, Code: service.CodeStorageError})
	}

	status, known := statusByCode[se.Code]
	if !known {
		status = http.StatusInternalServerError
	}
	body := errorBody{Error: se.Message, Code: se.Code, Field: se.Field}
	if status >= 500 {
		if production {
			body.Error = "Internal server error"
		} else {
			body.Error = se.Error()
		}
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, field, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: service.CodeValidationFailed, Field: field})
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
