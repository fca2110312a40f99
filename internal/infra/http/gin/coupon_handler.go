package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	couponsapp "homestay/internal/app/handlers/coupons"
	"homestay/internal/app/queries"
)

type HostCouponHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type couponRequest struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Currency    string `json:"currency"`
	ExpiryDate  string `json:"expiry_date"`
	UsageLimit  int    `json:"usage_limit"`
	Description string `json:"description"`
}

func (r couponRequest) terms() (couponsapp.Terms, error) {
	expiry, err := parseExpiry(r.ExpiryDate)
	if err != nil {
		return couponsapp.Terms{}, err
	}
	return couponsapp.Terms{
		Code:        strings.TrimSpace(r.Code),
		Type:        strings.ToUpper(strings.TrimSpace(r.Type)),
		Value:       strings.TrimSpace(r.Value),
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		ExpiryDate:  expiry,
		UsageLimit:  r.UsageLimit,
		Description: strings.TrimSpace(r.Description),
	}, nil
}

type couponStatusRequest struct {
	Status string `json:"status"`
}

func (h HostCouponHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := queries.Ask[couponsapp.ListHostCouponsQuery, dto.CouponCollection](c.Request.Context(), h.Queries, couponsapp.ListHostCouponsQuery{HostID: host})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostCouponHandler) Create(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	terms, ok := h.bindTerms(c)
	if !ok {
		return
	}
	cmd := couponsapp.CreateCouponCommand{HostID: host, Terms: terms}
	result, err := commands.Dispatch[couponsapp.CreateCouponCommand, *dto.Coupon](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostCouponHandler) Update(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	terms, ok := h.bindTerms(c)
	if !ok {
		return
	}
	cmd := couponsapp.UpdateCouponCommand{HostID: host, CouponID: pathID(c), Terms: terms}
	result, err := commands.Dispatch[couponsapp.UpdateCouponCommand, *dto.Coupon](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostCouponHandler) Delete(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	cmd := couponsapp.DeleteCouponCommand{HostID: host, CouponID: pathID(c)}
	result, err := commands.Dispatch[couponsapp.DeleteCouponCommand, *couponsapp.DeleteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostCouponHandler) SetStatus(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req couponStatusRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := couponsapp.SetCouponStatusCommand{
		HostID:   host,
		CouponID: pathID(c),
		Status:   strings.ToUpper(strings.TrimSpace(req.Status)),
	}
	result, err := commands.Dispatch[couponsapp.SetCouponStatusCommand, *dto.Coupon](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostCouponHandler) bindTerms(c *gin.Context) (couponsapp.Terms, bool) {
	var req couponRequest
	if !bindJSON(c, h.Logger, &req) {
		return couponsapp.Terms{}, false
	}
	terms, err := req.terms()
	if err != nil {
		respondError(c, h.Logger, err)
		return couponsapp.Terms{}, false
	}
	return terms, true
}

// CouponHandler serves the guest facing coupon check used before booking.
type CouponHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type validateCouponRequest struct {
	RoomID   string `json:"room_id"`
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

func (h CouponHandler) Validate(c *gin.Context) {
	var req validateCouponRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	query := couponsapp.ValidateCouponQuery{
		RoomID:   strings.TrimSpace(req.RoomID),
		Code:     strings.TrimSpace(req.Code),
		Subtotal: req.Subtotal,
	}
	result, err := queries.Ask[couponsapp.ValidateCouponQuery, dto.Discount](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ HostCouponHTTP = HostCouponHandler{}
	_ CouponHTTP     = CouponHandler{}
)
