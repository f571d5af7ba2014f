package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

type IssueLicenseRequest struct {
	ContentID  string            `json:"content_id" binding:"required"`
	DeviceID   string            `json:"device_id"`
	DeviceInfo dto.DeviceInfoDTO `json:"device_info"`
	Quality    string            `json:"quality"`
	Format     string            `json:"format"`
}

type ValidateLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
	DeviceID   string `json:"device_id"`
}

type RevokeLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
	Reason     string `json:"reason"`
}

type RevokeLicenseBySIDRequest struct {
	Reason string `json:"reason"`
}

// LicenseHandler serves the offline download license endpoints.
type LicenseHandler struct {
	service licenseService
	logger  logger.Interface
}

func NewLicenseHandler(service licenseService, logger logger.Interface) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger,
	}
}

// IssueLicense handles POST /api/downloads/licenses.
// The device id comes from the body or the X-Device-ID header.
func (h *LicenseHandler) IssueLicense(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req IssueLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid issue license request", "error", err, "user_id", userID)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := dto.IssueLicenseCommand{
		UserID:     userID,
		ContentID:  req.ContentID,
		DeviceID:   deviceID(c, req.DeviceID),
		DeviceInfo: deviceInfo(c, req.DeviceInfo),
		Quality:    req.Quality,
		Format:     req.Format,
	}

	result, err := h.service.Issue(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Infow("license issuance rejected",
			"user_id", userID,
			"content_id", req.ContentID,
			"error", err,
		)
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Download license issued")
}

// ValidateLicense handles POST /api/downloads/licenses/validate.
// The license key is the credential, so no bearer token is required.
func (h *LicenseHandler) ValidateLicense(c *gin.Context) {
	var req ValidateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Validate(c.Request.Context(), dto.ValidateLicenseCommand{
		LicenseKey: req.LicenseKey,
		DeviceID:   deviceID(c, req.DeviceID),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListLicenses handles GET /api/downloads/licenses.
func (h *LicenseHandler) ListLicenses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	licenses, err := h.service.ListActive(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to list licenses", "user_id", userID, "error", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"licenses": licenses,
		"count":    len(licenses),
	})
}

// RevokeLicense handles POST /api/downloads/licenses/revoke.
func (h *LicenseHandler) RevokeLicense(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req RevokeLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Revoke(c.Request.Context(), dto.RevokeLicenseCommand{
		LicenseKey: req.LicenseKey,
		UserID:     userID,
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, revokeMessage(result), result)
}

// RevokeLicenseBySID handles DELETE /api/downloads/licenses/:sid.
// The body is optional and may carry a reason.
func (h *LicenseHandler) RevokeLicenseBySID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req RevokeLicenseBySIDRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.service.RevokeBySID(c.Request.Context(), dto.RevokeLicenseBySIDCommand{
		SID:    c.Param("sid"),
		UserID: userID,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, revokeMessage(result), result)
}

func revokeMessage(result *dto.RevokeLicenseResult) string {
	if result.AlreadyInactive {
		return "License was already inactive"
	}
	return "License revoked"
}

func deviceID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader(constants.HeaderDeviceID)
}

func deviceInfo(c *gin.Context, info dto.DeviceInfoDTO) dto.DeviceInfoDTO {
	if info.UserAgent == "" {
		info.UserAgent = c.GetHeader(constants.HeaderUserAgent)
	}
	if info.Platform == "" {
		info.Platform = c.GetHeader(constants.HeaderPlatform)
	}
	if info.IPAddress == "" {
		info.IPAddress = c.ClientIP()
	}
	return info
}
