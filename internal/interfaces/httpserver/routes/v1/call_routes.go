package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/interfaces/httpserver/handlers"
	"github.com/openivr/call-server/internal/interfaces/httpserver/responses"
	"github.com/openivr/call-server/internal/utils/platformerrors"
)

// RegisterCallRoutes registers the call orchestration routes.
func RegisterCallRoutes(router gin.IRoutes, provider *handlers.Provider) {
	router.POST("/calls", initiateCall(provider.Call))
	router.GET("/calls/:id", getCallStatus(provider.Call))
	router.DELETE("/calls/:id", stopCall(provider.Call))
	router.GET("/calls/:id/stream", provider.Stream.Stream)
}

// initiateCall godoc
// @Summary      Initiate an outbound call
// @Description  Places an outbound call through the telephony platform and registers its session.
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Param        request body call.InitiateRequest true "Destination, flow mode and caller context"
// @Success      201 {object} call.InitiateResult
// @Failure      400 {object} platformerrors.HTTPErrorResponse
// @Failure      502 {object} platformerrors.HTTPErrorResponse
// @Router       /calls [post]
func initiateCall(handler *handlers.CallHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req call.InitiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, err.Error())
			return
		}
		if !req.FlowMode.Valid() {
			platformerrors.WriteValidationError(c, "flow_mode must be \"claims\" or \"eligibility\"")
			return
		}

		result, err := handler.InitiateCall(c.Request.Context(), &req)
		if err != nil {
			responses.HandleError(c, err, "failed to initiate call")
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// getCallStatus godoc
// @Summary      Get call session status
// @Description  Returns the merged session record for a contact id.
// @Tags         Calls
// @Produce      json
// @Param        id path string true "Contact ID"
// @Success      200 {object} call.Session
// @Failure      404 {object} platformerrors.HTTPErrorResponse
// @Router       /calls/{id} [get]
func getCallStatus(handler *handlers.CallHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := handler.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			responses.HandleError(c, err, "contact not found")
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// stopCall godoc
// @Summary      Stop a call
// @Description  Asks the telephony platform to end the contact.
// @Tags         Calls
// @Produce      json
// @Param        id path string true "Contact ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} platformerrors.HTTPErrorResponse
// @Router       /calls/{id} [delete]
func stopCall(handler *handlers.CallHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := handler.StopCall(c.Request.Context(), id); err != nil {
			responses.HandleError(c, err, "failed to stop call")
			return
		}
		c.JSON(http.StatusOK, gin.H{"contact_id": id, "message": "Stop requested"})
	}
}
