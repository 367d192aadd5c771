package handler

import (
	"net/http"

	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail writes a service error with its mapped status code. Extra details from
// the service layer (attempts remaining, missing documents, purpose hints) are
// merged into the response data.
func fail(c *gin.Context, err error) {
	status := service.HTTPStatus(err)
	resp := response.Error(status, err.Error())
	if details := service.ErrDetails(err); details != nil {
		resp.Data = details
	}
	c.JSON(status, resp)
}

func badPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
