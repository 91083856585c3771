package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	listingsapp "stayhub/internal/app/handlers/listings"
	"stayhub/internal/app/queries"
	domainlisting "stayhub/internal/domain/listing"
)

type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := listingsapp.GetListingQuery{
		ID:          c.Param("id"),
		CallerToken: bearerTokenFromContext(c),
	}
	result, err := queries.Ask[listingsapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		if errors.Is(err, domainlisting.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("listing query failed", "listing_id", query.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing"})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

type HostListingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type createListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Price       int64  `json:"price"`
	GuestsLimit int    `json:"guests_limit"`
}

func (h HostListingHandler) Create(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := listingsapp.HostListingCommand{
		CommandID:   generateCommandID(),
		CallerToken: user.Token,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Address:     req.Address,
		Country:     req.Country,
		City:        req.City,
		Price:       req.Price,
		GuestsLimit: req.GuestsLimit,
	}
	result, err := commands.Dispatch[listingsapp.HostListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if errors.Is(err, domainlisting.ErrTitleTooLong) ||
			errors.Is(err, domainlisting.ErrDescriptionTooLong) ||
			errors.Is(err, domainlisting.ErrInvalidType) ||
			errors.Is(err, domainlisting.ErrNegativePrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("host listing command failed", "command_id", cmd.CommandID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create listing"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ HostListingHTTP = HostListingHandler{}
