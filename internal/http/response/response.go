package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

// Version is reported in every envelope's metadata.
var Version = "1.0.0"

type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	ErrorCode string    `json:"errorCode,omitempty"`
}

type Envelope struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Metadata Metadata `json:"metadata"`
}

func meta(code string) Metadata {
	return Metadata{Timestamp: time.Now().UTC(), Version: Version, ErrorCode: code}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload, Metadata: meta("")})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload, Metadata: meta("")})
}

// RespondError writes an explicit status and code.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: msg, Metadata: meta(code)})
}

// RespondErr maps err onto the envelope. *apierr.Error values keep their
// status and code; 5xx and unknown errors are logged and reported generically.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	ae, ok := apierr.As(err)
	if !ok || ae.Status >= http.StatusInternalServerError || ae.Status == 0 {
		code := "internal_error"
		if ok && ae.Code != "" {
			code = ae.Code
		}
		if log != nil {
			log.Error("Request failed", "error", err, "code", code, "path", c.FullPath())
		}
		RespondError(c, http.StatusInternalServerError, code, errors.New("internal server error"))
		return
	}
	msg := ae.Code
	if ae.Err != nil {
		msg = ae.Err.Error()
	}
	RespondError(c, ae.Status, ae.Code, errors.New(msg))
}
