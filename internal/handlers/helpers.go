package handlers

import (
	"net/http"
	"strconv"

	"github.com/minhwang72/monsil-wedding/internal/utils"
	"github.com/minhwang72/monsil-wedding/pkg/validator"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates the request body, writing the error
// response itself when it fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validator.ValidateStruct(req); err != nil {
		utils.ValidationError(c, validator.Messages(err))
		return false
	}
	return true
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
