package infra

import (
	"time"

	"github.com/imroc/req/v3"
)

// ProvideHttpClient builds the client used for delivering callback
// notifications to tenant servers. Delivery is best effort, so retries
// stay bounded and short.
func ProvideHttpClient() *req.Client {
	return req.C().
		SetTimeout(10 * time.Second).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(3 * time.Second)
}
