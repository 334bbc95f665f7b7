package controller

import (
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/service"
	"coursewise_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	StudentNumber   string `json:"studentNumber" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	EntryYear       int    `json:"entryYear" binding:"required"`
	CurrentSemester int    `json:"currentSemester" binding:"required,min=1,max=16"`
}

// Register godoc
// @Summary Register a new student account
// @Description Creates a student identified by their institutional student number
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "registration details"
// @Success 201 {object} util.Response{data=object} "created"
// @Failure 400 {object} util.Response "invalid request"
// @Failure 409 {object} util.Response "student number already registered"
// @Failure 500 {object} util.Response "internal error"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	student := &model.Student{
		StudentNumber:   req.StudentNumber,
		Name:            req.Name,
		Password:        req.Password,
		EntryYear:       req.EntryYear,
		CurrentSemester: req.CurrentSemester,
		Role:            model.RoleStudent,
	}

	if err := c.AuthService.Register(student); err != nil {
		if errors.Is(err, util.ErrStudentNumberRegistered) {
			util.Error(ctx, 409, "student number already registered")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": student.ID})
}

// swagger:model LoginRequest
type LoginRequest struct {
	StudentNumber string `json:"studentNumber" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials and returns a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "credentials"
// @Success 200 {object} util.Response{data=object} "success"
// @Failure 400 {object} util.Response "invalid request"
// @Failure 401 {object} util.Response "unauthorized"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AuthService.Login(req.StudentNumber, req.Password)
	if errors.Is(err, util.ErrPermissionDenied) {
		util.Forbidden(ctx)
		return
	}
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{"token": token})
}

// GetProfile godoc
// @Summary Current account
// @Description Returns the authenticated student's account details
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Student} "success"
// @Failure 401 {object} util.Response "unauthorized"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	student := c.AuthService.GetCurrentStudent(ctx)
	if student == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"id":              student.ID,
		"studentNumber":   student.StudentNumber,
		"name":            student.Name,
		"entryYear":       student.EntryYear,
		"currentSemester": student.CurrentSemester,
		"major":           student.Major,
		"createdAt":       student.CreatedAt,
	})
}
