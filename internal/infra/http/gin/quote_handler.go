package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/quotes"
	"homestay/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type addOnRequest struct {
	ID        string `json:"id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type stayRequest struct {
	RoomID      string         `json:"room_id"`
	Granularity string         `json:"granularity"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	GuestCount  int            `json:"guest_count"`
	CouponCode  string         `json:"coupon_code"`
	AddOns      []addOnRequest `json:"add_ons"`
}

func (r stayRequest) query() quotes.QuoteBookingQuery {
	return quotes.QuoteBookingQuery{
		RoomID:      strings.TrimSpace(r.RoomID),
		Granularity: r.Granularity,
		Start:       r.Start,
		End:         r.End,
		GuestCount:  r.GuestCount,
		CouponCode:  strings.TrimSpace(r.CouponCode),
		AddOns: lo.Map(r.AddOns, func(a addOnRequest, _ int) quotes.AddOn {
			return quotes.AddOn{ID: a.ID, UnitPrice: a.UnitPrice, Quantity: a.Quantity}
		}),
	}
}

func (h QuoteHandler) Quote(c *gin.Context) {
	var req stayRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	result, err := queries.Ask[quotes.QuoteBookingQuery, dto.Quote](c.Request.Context(), h.Queries, req.query())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
