package constants

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"
	HeaderDeviceID      = "X-Device-ID"
	HeaderPlatform      = "X-Platform"

	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableDownloadLicenses   = "download_licenses"
	TableLicenseDeviceSlots = "license_device_slots"
	TableContents           = "contents"
	TableUsers              = "users"
	TablePurchases          = "purchases"
	TableWatchHistory       = "watch_history"
)
