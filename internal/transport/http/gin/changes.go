package httpgin

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
)

const heartbeatEvery = 15 * time.Second

// @Summary      Stream entity changes
// @Description  Server-sent events. A "ready" event is sent once the
// @Description  subscription is live, then one event per committed change.
// @Tags         events
// @Produce      text/event-stream
// @Param        event_id  query  int  false  "only changes of this event"
// @Success      200
// @Failure      503  {object}  ErrorResponse
// @Router       /events/changes [get]
func handleChanges(feed ChangeFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if feed == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "change feed unavailable"})
			return
		}

		var only int64
		if raw := c.Query("event_id"); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				badRequest(c, "invalid event_id")
				return
			}
			only = v
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		msgs := make(chan redisrepo.ChangeMessage, 64)
		ready := make(chan struct{})
		errc := make(chan error, 1)

		go func() {
			errc <- feed.Subscribe(ctx, ready, func(ctx context.Context, m redisrepo.ChangeMessage) {
				if only != 0 && m.EventID != only {
					return
				}
				select {
				case msgs <- m:
				case <-ctx.Done():
				}
			})
		}()

		select {
		case <-ready:
		case err := <-errc:
			respondErr(c, err)
			return
		case <-ctx.Done():
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("ready", gin.H{"event_id": only})
		c.Writer.Flush()

		heartbeat := time.NewTicker(heartbeatEvery)
		defer heartbeat.Stop()

		c.Stream(func(io.Writer) bool {
			select {
			case m := <-msgs:
				c.SSEvent(m.Type, m)
				return true
			case <-heartbeat.C:
				c.SSEvent("ping", gin.H{"ts_unix": time.Now().Unix()})
				return true
			case <-errc:
				return false
			case <-ctx.Done():
				return false
			}
		})
	}
}
