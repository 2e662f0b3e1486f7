package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"festpass/src/common"
	"festpass/src/db"
	"festpass/src/lib"
	"festpass/src/models"
	"festpass/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/booking/create-order", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			uid := ctx.GetString("uid")
			resp, err := common.CreateBookingOrder(userId, uid, &body)
			if err != nil {
				var quota *common.QuotaExceededError
				var gateway *common.GatewayError
				switch {
				case errors.As(err, &quota):
					ctx.JSON(http.StatusBadRequest, gin.H{
						"success": false,
						"error":   quota.Error(),
						"current": quota.Current,
					})
				case errors.Is(err, common.ErrEventNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
				case errors.Is(err, common.ErrEventNotOpen):
					ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				case errors.As(err, &gateway):
					log.Printf("Create order error: %s\n", err.Error())
					ctx.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to create order"})
				default:
					log.Printf("Create order error: %s\n", err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create order"})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success":        true,
				"bookingId":      resp.BookingID,
				"gatewayOrderId": resp.GatewayOrderID,
				"amount":         resp.Amount,
				"currency":       resp.Currency,
				"keyId":          resp.KeyID,
			})
		}).
		POST("/booking/verify-payment", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			uid := ctx.GetString("uid")
			resp, err := common.VerifyPaymentAndIssue(userId, uid, &body)
			if err != nil {
				var quota *common.QuotaExceededError
				switch {
				case errors.Is(err, common.ErrInvalidSignature):
					ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment signature"})
				case errors.Is(err, common.ErrBookingNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Booking not found"})
				case errors.Is(err, common.ErrAlreadyProcessed):
					ctx.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
				case errors.As(err, &quota):
					ctx.JSON(http.StatusBadRequest, gin.H{
						"success": false,
						"error":   "Ticket limit exceeded, payment flagged for refund",
						"current": quota.Current,
					})
				default:
					log.Printf("Verify payment error: %s\n", err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Payment verification failed"})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success":   true,
				"message":   "Payment verified and tickets created",
				"bookingId": resp.BookingID,
				"tickets":   resp.Tickets,
			})
		}).
		GET("/booking/my-tickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			uid := ctx.GetString("uid")
			cacheKey := fmt.Sprintf("mytickets:%s", uid)
			if rd := lib.GetRedisClient(); rd != nil {
				cached, err := rd.Get(ctx, cacheKey).Result()
				if err == nil && cached != "" {
					ctx.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
					return
				}
				if err != nil && !errors.Is(err, redis.Nil) {
					log.Printf("Error reading tickets from cache: %s\n", err.Error())
				}
			}
			var tickets []models.Ticket
			gdb := db.GetDb()
			if err := gdb.
				Where(&models.Ticket{UserID: userId}).
				Preload("Booking").
				Order("created_at DESC").
				Find(&tickets).
				Error; err != nil {
				log.Printf("Error retrieving tickets for user %s: %s\n", uid, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch tickets"})
				return
			}
			payload, err := json.Marshal(gin.H{"success": true, "tickets": tickets})
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch tickets"})
				return
			}
			if rd := lib.GetRedisClient(); rd != nil {
				rd.SetEx(context.Background(), cacheKey, string(payload), 5*time.Minute)
			}
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		})
	return g
}

func hostBookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/booking/verify-ticket/:ticketId", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			var body types.VerifyTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			ticket, err := common.VerifyTicketForHost(params.TicketID, body.EventID)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrTicketNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
				case errors.Is(err, common.ErrWrongEvent):
					ctx.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Ticket not for this event"})
				case errors.Is(err, common.ErrPaymentIncomplete):
					ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Payment not completed"})
				default:
					log.Printf("Verify ticket error: %s\n", err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Verification failed"})
				}
				return
			}
			var eventName string
			if ticket.Event != nil {
				eventName = ticket.Event.Name
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success": true,
				"ticket": gin.H{
					"ticket_id":     ticket.TicketID,
					"attendee_name": ticket.AttendeeName,
					"event_id":      ticket.EventID,
					"event_name":    eventName,
					"is_used":       ticket.UsedAt != nil,
					"used_at":       ticket.UsedAt,
					"created_at":    ticket.CreatedAt,
				},
			})
		}).
		POST("/booking/mark-used/:ticketId", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			var body types.MarkUsedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			ticket, err := common.RedeemTicket(params.TicketID, body.UsedAt, body.ScannedBy)
			if err != nil {
				var used *common.AlreadyUsedError
				switch {
				case errors.As(err, &used):
					ctx.JSON(http.StatusConflict, gin.H{
						"success":    false,
						"error":      "Ticket already used",
						"used_at":    used.UsedAt,
						"scanned_by": used.ScannedBy,
					})
				case errors.Is(err, common.ErrTicketNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ticket not found"})
				default:
					log.Printf("Mark used error: %s\n", err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to mark used"})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
		})
	return g
}
