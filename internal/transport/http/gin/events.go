package httpgin

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixcore/internal/domain"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
	"github.com/kirinyoku/tixcore/internal/service"
)

// @Summary  List events
// @Tags     events
// @Success  200  {array}  EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Query.ListEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(events, toEvent), listMaxAge)
	}
}

// @Summary  Get event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, toEvent(*e), eventMaxAge)
	}
}

// @Summary  List events of a category
// @Tags     events
// @Param    categoryId  path  int  true  "Category ID"
// @Success  200  {array}   EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/category/{categoryId} [get]
func handleEventsByCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "categoryId")
		if !ok {
			return
		}
		events, err := svcs.Query.EventsByCategory(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(events, toEvent), listMaxAge)
	}
}

// @Summary  List events by stored status
// @Tags     events
// @Param    status  path  string  true  "ACTIVE, UPCOMING, COMPLETED or CANCELLED"
// @Success  200  {array}   EventResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /events/status/{status} [get]
func handleEventsByStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.EventStatus(strings.ToUpper(c.Param("status")))
		events, err := svcs.Query.EventsByStatus(c.Request.Context(), status)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(events, toEvent), listMaxAge)
	}
}

// @Summary  List events on a date
// @Tags     events
// @Param    date  path  string  true  "dd-MM-yyyy"
// @Success  200  {array}   EventResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /events/date/{date} [get]
func handleEventsOnDate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := parseDate(c.Param("date"))
		if err != nil {
			respondErr(c, err)
			return
		}
		events, err := svcs.Query.EventsOnDate(c.Request.Context(), d)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(events, toEvent), listMaxAge)
	}
}

// @Summary  List events after today
// @Tags     events
// @Success  200  {array}  EventResponse
// @Router   /events/upcoming [get]
func handleUpcomingEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Query.UpcomingEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(events, toEvent), listMaxAge)
	}
}

// @Summary      List events in a date range
// @Description  Inclusive on both ends. Statuses are re-derived against today.
// @Tags         events
// @Param        start  query  string  true  "dd-MM-yyyy"
// @Param        end    query  string  true  "dd-MM-yyyy"
// @Success      200  {array}   EventResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /events/between [get]
func handleEventsBetween(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, ok := optionalDate(c, "start")
		if !ok {
			return
		}
		end, ok := optionalDate(c, "end")
		if !ok {
			return
		}
		events, err := svcs.Query.EventsBetween(c.Request.Context(), start, end)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(events, toEvent))
	}
}

// @Summary  Create event
// @Tags     events
// @Param    Idempotency-Key  header  string        false  "replay protection"
// @Param    req              body    EventRequest  true   "payload"
// @Success  201  {object}  EventResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse  "category not found"
// @Failure  409  {object}  ErrorResponse  "duplicate or idempotency key in progress"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /events [post]
func handleCreateEvent(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		if !bindJSON(c, &req) {
			return
		}
		fields, err := req.toFields()
		if err != nil {
			respondErr(c, err)
			return
		}

		withIdempotency(c, idem, "events", func() (int, any, error) {
			e, err := svcs.Events.CreateEvent(c.Request.Context(), fields)
			if err != nil {
				return 0, nil, err
			}
			return http.StatusCreated, toEvent(*e), nil
		})
	}
}

// @Summary  Update event
// @Tags     events
// @Param    id   path  int           true  "Event ID"
// @Param    req  body  EventRequest  true  "payload"
// @Success  200  {object}  EventResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /events/{id} [put]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req EventRequest
		if !bindJSON(c, &req) {
			return
		}
		fields, err := req.toFields()
		if err != nil {
			respondErr(c, err)
			return
		}
		e, err := svcs.Events.UpdateEvent(c.Request.Context(), id, fields)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEvent(*e))
	}
}

// @Summary  Delete event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "still referenced by sections or tickets"
// @Router   /events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		respondErr(c, svcs.Events.DeleteEvent(c.Request.Context(), id))
	}
}

// @Summary  Cancel event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "event already completed"
// @Router   /events/{id}/cancel [patch]
func handleCancelEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Events.CancelEvent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEvent(*e))
	}
}

// @Summary  Complete event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "event cancelled"
// @Router   /events/{id}/complete [patch]
func handleCompleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Events.CompleteEvent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEvent(*e))
	}
}

// @Summary  Update event capacity
// @Tags     events
// @Param    id   path  int              true  "Event ID"
// @Param    req  body  CapacityRequest  true  "payload"
// @Success  200  {object}  EventResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/capacity [patch]
func handleUpdateCapacity(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CapacityRequest
		if !bindJSON(c, &req) {
			return
		}
		e, err := svcs.Events.UpdateCapacity(c.Request.Context(), id, req.Capacity)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEvent(*e))
	}
}

// @Summary  List sections of an event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}   SectionResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/sections [get]
func handleSectionsByEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		secs, err := svcs.Query.SectionsByEvent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(secs, toSection), listMaxAge)
	}
}

// @Summary  List tickets of an event
// @Tags     events
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}   TicketResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/tickets [get]
func handleTicketsByEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		tickets, err := svcs.Query.TicketsByEvent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(tickets, toTicket))
	}
}

// @Summary  List transactions of a ticket
// @Tags     tickets
// @Param    id  path  int  true  "Ticket ID"
// @Success  200  {array}  TransactionResponse
// @Router   /tickets/{id}/transactions [get]
func handleTransactionsByTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		txs, err := svcs.Query.TransactionsByTicket(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(txs, toTransaction))
	}
}

// optionalDate reads a dd-MM-yyyy query parameter. An absent parameter
// yields nil; a malformed one answers 400.
func optionalDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	d, err := parseDate(raw)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return &d, true
}
