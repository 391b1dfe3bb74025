package llm

import (
	"net/http"
	"time"

	"github.com/ppiankov/spotlight/internal/util"
)

// httpClient builds the client providers talk through, with proxy settings applied.
// Per-request deadlines come from the context, so timeout is usually zero.
func httpClient(config Config, timeout time.Duration) *http.Client {
	return util.NewHTTPClient(util.ClientOptions{
		Timeout:    timeout,
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
		NoProxy:    config.NoProxy,
	})
}
