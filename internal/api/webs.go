package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/models"
)

// WebHandler serves web and account provisioning endpoints.
type WebHandler struct {
	repo WebRepository
	log  *logrus.Logger
}

// NewWebHandler creates a WebHandler with the given service and logger.
func NewWebHandler(repo WebRepository, log *logrus.Logger) *WebHandler {
	return &WebHandler{repo: repo, log: log}
}

// Create handles POST /api/v1/webs.
func (h *WebHandler) Create(c *gin.Context) {
	var req models.CreateWebRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	web, err := h.repo.CreateWeb(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "creating web", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "web.create",
		"actor_id":  actorID,
		"web_id":    web.WebID,
		"shortname": web.Shortname,
	}).Info("audit")

	c.JSON(http.StatusCreated, web)
}

// Get handles GET /api/v1/webs/:shortname.
func (h *WebHandler) Get(c *gin.Context) {
	shortname := c.Param("shortname")

	web, err := h.repo.GetWebByShortname(c.Request.Context(), shortname)
	if err != nil {
		respondServiceError(c, h.log, "getting web", err)

		return
	}

	c.JSON(http.StatusOK, web)
}

// createAccountRequest is the payload for registering an account.
type createAccountRequest struct {
	WebID uuid.UUID `json:"web_id"`
}

// CreateAccount handles POST /api/v1/accounts.
func (h *WebHandler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if req.WebID == uuid.Nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, models.ErrMissingWebID.Error())

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	account, err := h.repo.CreateAccount(c.Request.Context(), req.WebID)
	if err != nil {
		respondServiceError(c, h.log, "creating account", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "account.create",
		"actor_id":   actorID,
		"account_id": account.AccountID,
		"web_id":     account.WebID,
	}).Info("audit")

	c.JSON(http.StatusCreated, account)
}
