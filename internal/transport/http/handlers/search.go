package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

// SearchHandler exposes directory lookup endpoints for the account forms.
type SearchHandler struct {
	accounts *usecase.AccountService
}

// NewSearchHandler constructs SearchHandler.
func NewSearchHandler(accounts *usecase.AccountService) *SearchHandler {
	return &SearchHandler{accounts: accounts}
}

// searchFailure builds the error body for a failed lookup. Directory
// operation failures carry the native diagnostic in the details field, like
// the account mutation endpoints.
func searchFailure(c *gin.Context, err error, fallback string) ErrorResponse {
	resp := NewErrorResponse(c, fallback)
	var opErr *port.OperationError
	if errors.As(err, &opErr) {
		resp.Details = opErr.Error()
	}
	return resp
}

// SearchUser returns entries whose common name contains the query as a bare
// array of DN references.
func (h *SearchHandler) SearchUser(c *gin.Context) {
	refs, err := h.accounts.SearchAccounts(c.Request.Context(), c.Query("query"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, searchFailure(c, err, "user search failed"))
		return
	}

	c.JSON(http.StatusOK, refs)
}

// SearchManager returns manager candidates matching the query.
func (h *SearchHandler) SearchManager(c *gin.Context) {
	refs, err := h.accounts.SearchManagers(c.Request.Context(), c.Query("query"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, struct {
			ErrorResponse
			Managers []usecase.DirectoryRef `json:"managers"`
		}{
			ErrorResponse: searchFailure(c, err, "manager search failed"),
			Managers:      []usecase.DirectoryRef{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"managers": refs})
}

// SearchGroup returns groups matching the query.
func (h *SearchHandler) SearchGroup(c *gin.Context) {
	refs, err := h.accounts.SearchGroups(c.Request.Context(), c.Query("query"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, struct {
			ErrorResponse
			Groups []usecase.DirectoryRef `json:"groups"`
		}{
			ErrorResponse: searchFailure(c, err, "group search failed"),
			Groups:        []usecase.DirectoryRef{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": refs})
}
