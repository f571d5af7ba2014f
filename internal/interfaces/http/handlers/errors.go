package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

var licenseErrorStatus = map[license.ErrorKind]int{
	license.KindAccessDenied:       http.StatusForbidden,
	license.KindContentUnavailable: http.StatusUnprocessableEntity,
	license.KindAlreadyExists:      http.StatusConflict,
	license.KindMaxDevicesReached:  http.StatusConflict,
	license.KindInvalidLicense:     http.StatusUnauthorized,
	license.KindExpired:            http.StatusGone,
	license.KindAccessRevoked:      http.StatusForbidden,
	license.KindNotFound:           http.StatusNotFound,
}

// respondError renders license errors with their kind and context, and
// anything else through the AppError mapping. Invalid-license responses
// never carry detail.
func respondError(c *gin.Context, err error) {
	var licErr *license.Error
	if !errors.As(err, &licErr) {
		utils.ErrorResponseWithError(c, err)
		return
	}

	status, ok := licenseErrorStatus[licErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	info := utils.ErrorInfo{
		Type:    string(licErr.Kind),
		Message: licErr.Message(),
	}
	if licErr.Kind != license.KindInvalidLicense {
		info.Details = licErr.Constraint
		info.Context = licErr.Context
	}

	utils.ErrorResponseWithInfo(c, status, info)
}

func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}
