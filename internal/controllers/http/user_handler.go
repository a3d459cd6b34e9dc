package http

import (
	"net/http"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/services"
	"shop-service/internal/token"

	"github.com/gin-gonic/gin"
)

func (h *Handler) setAuthCookies(c *gin.Context, p *token.Pair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieAccess, p.AccessToken, maxAge(p.AccessExpiresAt), "/", "", h.secureCookies, true)
	c.SetCookie(cookieRefresh, p.RefreshToken, maxAge(p.RefreshExpiresAt), "/", "", h.secureCookies, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieAccess, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(cookieRefresh, "", -1, "/", "", h.secureCookies, true)
}

func maxAge(exp time.Time) int {
	if s := int(time.Until(exp).Seconds()); s > 0 {
		return s
	}
	return 0
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, u, "User registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	u, pair, err := h.users.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.setAuthCookies(c, pair)
	respond(c, http.StatusOK, authResponse{User: u, Tokens: pair}, "User logged in successfully")
}

// RefreshToken accepts the refresh token from the cookie or the JSON body.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if cookie, err := c.Cookie(cookieRefresh); err == nil && cookie != "" {
		req.RefreshToken = cookie
	} else if !h.bindOptional(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		respond(c, http.StatusUnauthorized, nil, "missing refresh token")
		return
	}

	u, pair, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.setAuthCookies(c, pair)
	respond(c, http.StatusOK, authResponse{User: u, Tokens: pair}, "Access token refreshed")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context(), identity(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	h.clearAuthCookies(c)
	respond(c, http.StatusOK, nil, "User logged out")
}

func (h *Handler) UpdateDetails(c *gin.Context) {
	var req updateDetailsRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.users.UpdateDetails(c.Request.Context(), identity(c), services.UpdateDetailsInput{
		UserName: req.UserName,
		Email:    req.Email,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, u, "Account details updated successfully")
}

func (h *Handler) SaveAddress(c *gin.Context) {
	var req domain.ShippingAddress
	if !h.bind(c, &req) {
		return
	}
	a, err := h.addresses.Save(c.Request.Context(), identity(c), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, a, "Address saved successfully")
}

func (h *Handler) ListAddresses(c *gin.Context) {
	list, err := h.addresses.List(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, list, "Addresses fetched successfully")
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	addressID, ok := idParam(c, "addressId")
	if !ok {
		return
	}
	var req domain.ShippingAddress
	if !h.bind(c, &req) {
		return
	}
	a, err := h.addresses.Update(c.Request.Context(), identity(c), addressID, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, a, "Address updated successfully")
}
