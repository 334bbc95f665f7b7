package service

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/repository"
	"coursewise_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	StudentRepo *repository.StudentRepository
	Cfg         *config.Config
}

func NewAuthService(studentRepo *repository.StudentRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		StudentRepo: studentRepo,
		Cfg:         cfg,
	}
}

func (s *AuthService) Register(student *model.Student) error {
	_, err := s.StudentRepo.FindByStudentNumber(student.StudentNumber)
	if err == nil {
		return util.ErrStudentNumberRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(student.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	student.Password = string(hashedPassword)
	return s.StudentRepo.Create(student)
}

func (s *AuthService) Login(studentNumber, password string) (string, error) {
	student, err := s.StudentRepo.FindByStudentNumber(studentNumber)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	if student.Disabled {
		return "", util.ErrPermissionDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return util.GenerateJWT(student, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) GetCurrentStudent(c *gin.Context) *model.Student {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	student, _ := s.StudentRepo.FindByID(claims.StudentID)
	return student
}
