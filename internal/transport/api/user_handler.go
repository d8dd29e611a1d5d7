package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svs LedgerServicer
}

func NewUserHandler(svs LedgerServicer) *UserHandler {
	return &UserHandler{
		svs: svs,
	}
}

type CreateUserParams struct {
	Name  string `form:"name" binding:"required,max_bytes=255"`
	Email string `form:"email" binding:"required,email,max_bytes=255"`
}

type UserResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Create GET CreateRoute.
func (u *UserHandler) Create(c *gin.Context) {
	var params CreateUserParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, err := u.svs.CreateUser(reqCtx, params.Name, params.Email)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, &UserResponse{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
}
