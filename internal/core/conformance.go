package core

import "github.com/taponn/taponn-api/internal/data"

// Compile-time checks that the Postgres repositories satisfy the interfaces.
var (
	_ AccountRepository   = (*data.AccountRepo)(nil)
	_ ProfileRepository   = (*data.ProfileRepo)(nil)
	_ QRCodeRepository    = (*data.QRCodeRepo)(nil)
	_ OrderRepository     = (*data.OrderRepo)(nil)
	_ AnalyticsRepository = (*data.AnalyticsRepo)(nil)
)
