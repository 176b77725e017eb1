package handlers

import (
	"net/http"
	"strconv"
	"time"

	"backend_boilerplate/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const birthdateLayout = "2006-01-02"

type createUserRequest struct {
	Username    string  `json:"username" binding:"required,min=4,max=15"`
	Email       string  `json:"email" binding:"required,email"`
	FirstName   string  `json:"first_name" binding:"required,max=50"`
	MiddleName  *string `json:"middle_name"`
	LastName    string  `json:"last_name" binding:"required,max=100"`
	Password    string  `json:"password" binding:"required,min=8"`
	Gender      *string `json:"gender"`
	Birthdate   *string `json:"birthdate"` // YYYY-MM-DD
	PhoneNumber *string `json:"phone_number"`
}

func (r createUserRequest) toModel() (*models.User, error) {
	u := &models.User{
		Username:    r.Username,
		Email:       r.Email,
		FirstName:   r.FirstName,
		MiddleName:  r.MiddleName,
		LastName:    r.LastName,
		Gender:      r.Gender,
		PhoneNumber: r.PhoneNumber,
	}
	if r.Birthdate != nil {
		t, err := time.Parse(birthdateLayout, *r.Birthdate)
		if err != nil {
			return nil, err
		}
		u.Birthdate = &t
	}
	return u, nil
}

// pathUserID parses the :id path segment; writes a 400 and returns false on
// a malformed UUID.
func pathUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

// @Summary      List users
// @Description  Returns users with offset/limit pagination (limit capped at 100).
// @Tags         user
// @Produce      json
// @Param        skip   query  int  false  "Offset from where to start returning users"  default(0)
// @Param        limit  query  int  false  "Maximum number of users to return"  default(100)
// @Success      200  {object}  map[string]interface{}  "users"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/user [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	users, err := h.services.Users.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// @Summary      Create user
// @Description  Registers a new user and sends the notification mails.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body  createUserRequest  true  "User data"
// @Success      201  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/user [post]
// @Security     BearerAuth
func (h *Handler) createUser(c *gin.Context) {
	var input createUserRequest
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}
	u, err := input.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid birthdate; use YYYY-MM-DD"})
		return
	}
	created, err := h.services.Users.Register(c.Request.Context(), u, input.Password)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Current user
// @Description  Returns the authenticated user's profile (cached).
// @Tags         user
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/user/me [get]
// @Security     BearerAuth
func (h *Handler) currentUser(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(uuid.UUID)
	u, err := h.services.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Get user by ID
// @Tags         user
// @Produce      json
// @Param        id  path  string  true  "User ID (UUID)"
// @Success      200  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/user/{id} [get]
// @Security     BearerAuth
func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	u, err := h.services.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Update user
// @Description  Applies a partial update; omitted fields are left unchanged.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID (UUID)"
// @Param        body  body  models.UserUpdate  true  "Fields to update"
// @Success      200  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/user/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	var upd models.UserUpdate
	if ok := h.bindOrBadRequest(c, &upd); !ok {
		return
	}
	u, err := h.services.Users.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Delete user
// @Tags         user
// @Param        id  path  string  true  "User ID (UUID)"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/user/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	if err := h.services.Users.Delete(c.Request.Context(), id); err != nil {
		h.serviceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
