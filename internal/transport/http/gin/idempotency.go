package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
)

const idemLockTTL = 60 * time.Second

// withIdempotency runs create once per Idempotency-Key header value and
// resource. A repeated key replays the stored response; a key whose first
// request is still running gets 409. Without a store or a key, create just
// runs.
func withIdempotency(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	resource string,
	create func() (int, any, error),
) {
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idem == nil || idemKey == "" {
		status, body, err := create()
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(status, body)
		return
	}

	ctx := c.Request.Context()
	storageKey := redisrepo.KeyIdemCreate(resource, idemKey)

	if replay(c, idem, storageKey, idemKey) {
		return
	}

	locked, err := idem.AcquireLock(ctx, storageKey, idemLockTTL)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !locked {
		if replay(c, idem, storageKey, idemKey) {
			return
		}
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
		return
	}

	status, body, err := create()
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	b, err := json.Marshal(body)
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	if err := idem.SaveResult(ctx, storageKey, status, string(b)); err != nil {
		_ = c.Error(err)
	}

	c.Header("Idempotency-Key", idemKey)
	c.Data(status, "application/json; charset=utf-8", b)
}

func replay(c *gin.Context, idem *redisrepo.IdempotencyStore, storageKey, idemKey string) bool {
	status, payload, ok, err := idem.GetResult(c.Request.Context(), storageKey)
	if err != nil || !ok {
		return false
	}

	c.Header("Idempotency-Key", idemKey)
	c.Header("Idempotent-Replayed", "true")
	c.Data(status, "application/json; charset=utf-8", []byte(payload))
	return true
}
