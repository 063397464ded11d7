package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

// AccountHandler exposes account provisioning and lifecycle endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
	deletion *usecase.DeletionService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService, deletion *usecase.DeletionService) *AccountHandler {
	return &AccountHandler{accounts: accounts, deletion: deletion}
}

// CreateUser provisions a new directory account.
func (h *AccountHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result, err := h.accounts.Create(c.Request.Context(), usecase.CreateInput{
		FullName:    req.FullName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		OrgUnit:     req.OrgUnit,
		Description: req.NewDescription,
		Office:      req.NewOffice,
		PhoneNumber: req.NewPhoneNumber,
		LoginName:   req.LoginName,
		Domain:      req.Domain,
		ManagerDN:   req.ManagerDN,
		MemberOf:    groupDNs(req.MemberOf),
	})
	if err != nil {
		h.respondAccountError(c, err, "user creation failed")
		return
	}

	c.JSON(http.StatusOK, CreateUserResponse{
		Message:   "User created successfully",
		Password:  result.Password,
		LoginName: result.Login,
	})
}

// DeleteUser deletes an account immediately or schedules its deferred
// deletion, depending on the requested retention.
func (h *AccountHandler) DeleteUser(c *gin.Context) {
	var req DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result, err := h.deletion.Delete(c.Request.Context(), usecase.DeleteInput{
		DN:               req.DN,
		FullName:         req.FullName,
		RetentionDays:    req.RetentionDays.String(),
		RetentionMinutes: req.RetentionMinutes.String(),
	})
	if err != nil {
		h.respondAccountError(c, err, "user deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: result.Message})
}

// ApplyChanges updates the modifiable attributes of an existing account.
func (h *AccountHandler) ApplyChanges(c *gin.Context) {
	var req ApplyChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	err := h.accounts.ApplyChanges(c.Request.Context(), usecase.ModifyInput{
		DN:          req.DN,
		FullName:    req.FullName,
		OrgUnit:     req.OrgUnit,
		MainOrgUnit: req.MainOrgUnit,
		Description: req.NewDescription,
		Office:      req.NewOffice,
		PhoneNumber: req.NewPhoneNumber,
		ManagerDN:   req.ManagerDN,
		MemberOf:    groupDNs(req.MemberOf),
	})
	if err != nil {
		h.respondAccountError(c, err, "user modification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Changes applied successfully"})
}

// respondAccountError maps usecase errors to wire responses. Directory
// operation failures carry the native diagnostic in the details field.
func (h *AccountHandler) respondAccountError(c *gin.Context, err error, fallback string) {
	var opErr *port.OperationError
	if errors.As(err, &opErr) {
		resp := NewErrorResponse(c, fallback)
		resp.Details = opErr.Error()
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrDNRequired, Status: http.StatusBadRequest, Message: "the dn field is required"},
		{Err: usecase.ErrInvalidRetention, Status: http.StatusBadRequest, Message: "retention_days and retention_minutes must be integers"},
		{Err: usecase.ErrMissingRequiredFields, Status: http.StatusBadRequest, Message: "fullName, firstName, lastName and new_ou are required"},
		{Err: usecase.ErrMissingModifyFields, Status: http.StatusBadRequest, Message: "dn, new_ou and main_ou are required"},
		{Err: usecase.ErrDirectoryUnavailable, Status: http.StatusInternalServerError, Message: "directory unavailable"},
		{Err: usecase.ErrPasswordGeneration, Status: http.StatusInternalServerError, Message: "could not generate an initial password"},
	}, http.StatusInternalServerError, fallback)
}
