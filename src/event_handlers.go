package main

import (
	"errors"
	"log"
	"net/http"

	"festpass/src/db"
	"festpass/src/models"
	"festpass/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var events []models.Event
			if err := gdb.
				Where(&models.Event{Status: types.EVENT_OPEN}).
				Order("starts_at ASC").
				Find(&events).
				Error; err != nil {
				log.Printf("Error retrieving events: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch events"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": len(events)})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var event models.Event
			if err := gdb.
				Where(&models.Event{ID: params.ID}).
				First(&event).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Event not found"})
					return
				}
				log.Printf("Error retrieving event %d: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch event"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return g
}
