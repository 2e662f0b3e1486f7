package main

import (
	"errors"
	"log"
	"net/http"

	"festpass/src/common"
	"festpass/src/types"

	"github.com/gin-gonic/gin"
)

// ticketHandlers is the unauthenticated scanner surface. It exposes only
// what a gate operator needs: who the ticket admits and whether it has
// been used.
func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets/:ticketId", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			ticket, err := common.LookupTicket(params.TicketID)
			if err != nil {
				if errors.Is(err, common.ErrTicketNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
					return
				}
				log.Printf("Error retrieving ticket %s: %s\n", params.TicketID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch ticket"})
				return
			}
			status := "valid"
			if ticket.UsedAt != nil {
				status = "used"
			}
			ctx.JSON(http.StatusOK, gin.H{
				"ticket_id":     ticket.TicketID,
				"attendee_name": ticket.AttendeeName,
				"event_id":      ticket.EventID,
				"status":        status,
				"used_at":       ticket.UsedAt,
			})
		})
	return g
}
