package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"landing-v2/internal/config"
	"landing-v2/internal/domain"
	"landing-v2/internal/ratelimit"
	"landing-v2/internal/service"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"
)

// Request bodies larger than this are rejected before JSON parsing.
const maxBodyBytes = 16 << 10 // 16 KiB

// Defaults applied when the form omits optional fields.
const (
	defaultSource   = "promo-landing"
	defaultPagePath = "/promo"
)

// Visible-name bounds, applied only when the deployment collects a name.
const (
	minNameRunes = 2
	maxNameRunes = 100
)

// emailPattern requires a local part, "@", a domain and a TLD-like suffix of
// at least two characters. Deliverability is the CRM's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// LeadHandler handles promo lead submissions
type LeadHandler struct {
	limiter ratelimit.Store
	crm     service.CRMService
	config  *config.Config
	logger  *logger.Logger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(limiter ratelimit.Store, crm service.CRMService, cfg *config.Config, logger *logger.Logger) *LeadHandler {
	return &LeadHandler{
		limiter: limiter,
		crm:     crm,
		config:  cfg,
		logger:  logger,
	}
}

// LeadResponse is the wire format for every promo-lead reply.
type LeadResponse struct {
	OK     bool   `json:"ok"`
	Coupon string `json:"coupon,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Submit handles POST /api/promo-lead
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Cache-Control", "no-store")

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
		// Proceed.
	default:
		h.respondError(w, apperrors.NewMethodNotAllowedError("Method not allowed."))
		return
	}

	// Enforce the size ceiling before anything touches the payload.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, apperrors.NewPayloadTooLargeError("Request body too large."))
			return
		}
		h.respondError(w, apperrors.NewValidationError("Invalid request body."))
		return
	}

	clientIP := h.clientIP(r)

	decision, err := h.limiter.Allow(ctx, clientIP)
	if err != nil {
		h.respondError(w, apperrors.NewInternalError("Something went wrong. Please try again later.", err))
		return
	}
	h.setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		h.logger.WithFields(map[string]interface{}{
			"ip":            clientIP,
			"request_count": decision.RequestCount,
		}).Warn("Rate limit exceeded")
		h.respondError(w, apperrors.NewRateLimitError("Too many requests. Please try again later."))
		return
	}

	var req domain.LeadRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		h.respondError(w, apperrors.NewValidationError("Invalid request body."))
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultSource
	}
	pagePath := strings.TrimSpace(req.PagePath)
	if pagePath == "" {
		pagePath = defaultPagePath
	}
	userAgent := strings.TrimSpace(req.UserAgent)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	// Honeypot: the form hides this field, so a value means a bot filled it
	// in. Claim success so the trap stays invisible, but process nothing.
	if strings.TrimSpace(req.Company) != "" {
		h.logger.WithFields(map[string]interface{}{
			"ip":        clientIP,
			"page_path": pagePath,
		}).Info("Honeypot triggered, dropping submission")
		h.respond(w, http.StatusOK, LeadResponse{OK: true})
		return
	}

	if h.config.RequireName {
		nameLen := utf8.RuneCountInString(name)
		if nameLen < minNameRunes {
			h.respondError(w, apperrors.NewValidationError("Please provide your name."))
			return
		}
		if nameLen > maxNameRunes {
			h.respondError(w, apperrors.NewValidationError("Please provide a valid name."))
			return
		}
	}

	if !emailPattern.MatchString(email) {
		h.respondError(w, apperrors.NewValidationError("Please provide a valid email address."))
		return
	}

	lead := &domain.Lead{
		Name:            name,
		Email:           email,
		Source:          source,
		CreatedAt:       time.Now().UTC(),
		CreatedAtClient: strings.TrimSpace(req.CreatedAt),
		PagePath:        pagePath,
		UserAgent:       userAgent,
		ClientIP:        clientIP,
	}

	h.logger.WithFields(map[string]interface{}{
		"email":     lead.Email,
		"source":    lead.Source,
		"page_path": lead.PagePath,
		"ip":        lead.ClientIP,
	}).Info("Promo lead received")

	outcome, err := h.crm.UpsertContact(ctx, lead)
	if err != nil {
		// The upstream detail stays in the logs; callers get a generic
		// retry-later message.
		h.respondError(w, apperrors.NewExternalError("Something went wrong. Please try again later.", err))
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"email":   lead.Email,
		"outcome": string(outcome),
	}).Debug("Promo lead processed")

	h.respond(w, http.StatusOK, LeadResponse{OK: true, Coupon: h.config.CouponCode})
}

// clientIP extracts the real client address from proxy headers, falling
// back to the connection's remote address.
func (h *LeadHandler) clientIP(r *http.Request) string {
	headers := []string{
		"CF-Connecting-IP", // Cloudflare
		"X-Forwarded-For",  // Standard proxy header
		"X-Real-IP",        // Nginx proxy
	}

	for _, header := range headers {
		if ip := r.Header.Get(header); ip != "" {
			// X-Forwarded-For can contain multiple IPs, take the first one
			if header == "X-Forwarded-For" {
				if firstIP := firstForwardedIP(ip); firstIP != "" {
					return firstIP
				}
				continue
			}
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// firstForwardedIP extracts the first IP from a comma-separated list
func firstForwardedIP(ips string) string {
	for i, char := range ips {
		if char == ',' || char == ' ' {
			return ips[:i]
		}
	}
	return ips
}

// setRateLimitHeaders sets standard rate limit headers
func (h *LeadHandler) setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.Decision) {
	remaining := decision.Limit - decision.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	if decision.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
	}
}

// respondError logs the internal cause, if any, and sends the user-facing
// message with the status the error type maps to.
func (h *LeadHandler) respondError(w http.ResponseWriter, appErr *apperrors.AppError) {
	if appErr.Internal != nil {
		h.logger.WithError(appErr).Error("Lead request failed")
	}
	h.respond(w, appErr.StatusCode, LeadResponse{OK: false, Error: appErr.Message})
}

func (h *LeadHandler) respond(w http.ResponseWriter, statusCode int, response LeadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode lead response")
	}
}

// RegisterRoutes registers lead handler routes with the router
func (h *LeadHandler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/promo-lead", h.Submit)
}
