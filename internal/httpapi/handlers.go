package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"coffee-shop/internal/audit"
	"coffee-shop/internal/auth"
	"coffee-shop/internal/drinks"
	"coffee-shop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// DrinkService is the part of *drinks.Service the handlers use.
type DrinkService interface {
	Create(ctx context.Context, in drinks.Input) (drinks.Drink, error)
	List(ctx context.Context) ([]drinks.Drink, error)
	Update(ctx context.Context, id string, in drinks.Input) (drinks.Drink, error)
	Delete(ctx context.Context, id string) error
}

type AuditLogger interface {
	LogDrinkMutation(ctx context.Context, typ audit.EventType, subject, ip, drinkID, metadata string) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, call internal services, return JSON.
type Handlers struct {
	Drinks DrinkService
	// Audit is optional.
	Audit AuditLogger
	// Ping reports storage reachability for /healthz. Optional.
	Ping func(ctx context.Context) error
}

func (h Handlers) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListDrinks is public and returns the short representation.
func (h Handlers) ListDrinks(c *gin.Context) {
	ds, err := h.Drinks.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": drinks.ShortList(ds)})
}

// ListDrinksDetail requires get:drinks-detail.
func (h Handlers) ListDrinksDetail(c *gin.Context) {
	ds, err := h.Drinks.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": drinks.LongList(ds)})
}

func (h Handlers) CreateDrink(c *gin.Context) {
	var in drinks.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithStatus(c, http.StatusBadRequest)
		return
	}
	d, err := h.Drinks.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventTypeDrinkCreated, d.ID, map[string]any{"title": d.Title})
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []drinks.LongView{d.Long()}})
}

func (h Handlers) UpdateDrink(c *gin.Context) {
	var in drinks.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithStatus(c, http.StatusBadRequest)
		return
	}
	d, err := h.Drinks.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventTypeDrinkUpdated, d.ID, map[string]any{"fields": suppliedFields(in)})
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []drinks.LongView{d.Long()}})
}

func (h Handlers) DeleteDrink(c *gin.Context) {
	id := c.Param("id")
	if err := h.Drinks.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventTypeDrinkDeleted, id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true, "delete": id})
}

// record writes an audit event. Failures are logged and never affect the
// response.
func (h Handlers) record(c *gin.Context, typ audit.EventType, drinkID string, meta map[string]any) {
	if h.Audit == nil {
		return
	}
	subject, _ := auth.Subject(c.Request.Context())
	var metadata string
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			metadata = string(b)
		}
	}
	if err := h.Audit.LogDrinkMutation(c.Request.Context(), typ, subject, c.ClientIP(), drinkID, metadata); err != nil {
		logger.FromGin(c).Warn("audit append failed", "type", typ, "drink_id", drinkID, "err", err)
	}
}

func suppliedFields(in drinks.Input) []string {
	fields := []string{}
	if len(in.Title) > 0 {
		fields = append(fields, "title")
	}
	if len(in.Recipe) > 0 {
		fields = append(fields, "recipe")
	}
	return fields
}
