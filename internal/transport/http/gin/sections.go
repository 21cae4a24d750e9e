package httpgin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixcore/internal/domain"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
	"github.com/kirinyoku/tixcore/internal/service"
)

// @Summary  List sections
// @Tags     sections
// @Success  200  {array}  SectionResponse
// @Router   /sections [get]
func handleListSections(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		secs, err := svcs.Query.ListSections(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(secs, toSection), listMaxAge)
	}
}

// @Summary  Get section
// @Tags     sections
// @Param    id  path  int  true  "Section ID"
// @Success  200  {object}  SectionResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /sections/{id} [get]
func handleGetSection(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sec, err := svcs.Query.GetSection(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toSection(*sec))
	}
}

// @Summary  List sections by status
// @Tags     sections
// @Param    status  path  string  true  "ACTIVE, INACTIVE or CLOSED"
// @Success  200  {array}   SectionResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /sections/status/{status} [get]
func handleSectionsByStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.SectionStatus(strings.ToUpper(c.Param("status")))
		secs, err := svcs.Query.SectionsByStatus(c.Request.Context(), status)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(secs, toSection), listMaxAge)
	}
}

// @Summary  Create section
// @Tags     sections
// @Param    Idempotency-Key  header  string          false  "replay protection"
// @Param    req              body    SectionRequest  true   "payload"
// @Success  201  {object}  SectionResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse  "event not found"
// @Failure  409  {object}  ErrorResponse  "duplicate or event cancelled/completed"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /sections [post]
func handleCreateSection(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SectionRequest
		if !bindJSON(c, &req) {
			return
		}

		withIdempotency(c, idem, "sections", func() (int, any, error) {
			sec, err := svcs.Sections.CreateSection(c.Request.Context(), req.toFields())
			if err != nil {
				return 0, nil, err
			}
			return http.StatusCreated, toSection(*sec), nil
		})
	}
}

// @Summary  Update section
// @Tags     sections
// @Param    id   path  int             true  "Section ID"
// @Param    req  body  SectionRequest  true  "payload"
// @Success  200  {object}  SectionResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "duplicate or activation refused"
// @Router   /sections/{id} [put]
func handleUpdateSection(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SectionRequest
		if !bindJSON(c, &req) {
			return
		}
		sec, err := svcs.Sections.UpdateSection(c.Request.Context(), id, req.toFields())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toSection(*sec))
	}
}

// @Summary  Delete section
// @Tags     sections
// @Param    id  path  int  true  "Section ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "still referenced by tickets"
// @Router   /sections/{id} [delete]
func handleDeleteSection(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		respondErr(c, svcs.Sections.DeleteSection(c.Request.Context(), id))
	}
}
