package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/notify"
	"github.com/yeremiapane/restaurant-reservation/repository"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errNotVerified        = errors.New("account is not verified")
	errEmailTaken         = errors.New("email already registered")
	errUserNotFound       = errors.New("user not found")
)

type UserController struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	// BaseURL prefixes verification links.
	BaseURL string
}

func NewUserController(db *gorm.DB, notifier notify.Notifier, baseURL string) *UserController {
	return &UserController{DB: db, Notifier: notifier, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Register creates an inactive account and sends its verification link.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		FirstName   string  `json:"first_name" binding:"required,max=50"`
		LastName    string  `json:"last_name" binding:"required,max=50"`
		Email       string  `json:"email" binding:"required,email"`
		Password    string  `json:"password" binding:"required,min=8,max=72"`
		PhoneNumber *string `json:"phone_number" binding:"omitempty,max=35"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondInternal(c, err)
		return
	}

	token := uuid.NewString()
	user := models.User{
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber:       req.PhoneNumber,
		Password:          string(hashed),
		VerificationToken: &token,
	}

	ctx := c.Request.Context()
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return uc.Notifier.SendVerification(ctx, user, uc.BaseURL+"/users/verify/"+token)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			utils.RespondError(c, http.StatusConflict, errEmailTaken)
			return
		}
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.WithField("user_id", user.ID).Info("user registered")
	utils.RespondJSON(c, http.StatusCreated, "User registered, check your email to verify the account", gin.H{
		"user_id": user.ID,
	})
}

// VerifyEmail activates the account owning token. Tokens are single use.
func (uc *UserController) VerifyEmail(c *gin.Context) {
	token := c.Param("token")
	db := uc.DB.WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("verification link is invalid or already used"))
			return
		}
		respondInternal(c, err)
		return
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"is_active":          true,
		"verification_token": nil,
	}).Error; err != nil {
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.WithField("user_id", user.ID).Info("user verified")
	utils.RespondJSON(c, http.StatusOK, "Account verified", gin.H{"user_id": user.ID})
}

// Login returns a JWT for an active account.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
			return
		}
		respondInternal(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if !user.IsActive {
		utils.RespondError(c, http.StatusForbidden, errNotVerified)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Roles)
	if err != nil {
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.WithField("user_id", user.ID).Info("login successful")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"roles": user.Roles.Names(),
	})
}

// Logout revokes the bearer token used for this request.
func (uc *UserController) Logout(c *gin.Context) {
	token, expiry := middlewares.TokenFromContext(c)
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	utils.BlacklistToken(token, expiry)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, actor.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errUserNotFound)
			return
		}
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", profile(user))
}

// GetAllUsers is admin only.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.WithContext(c.Request.Context()).Order("id").Find(&users).Error; err != nil {
		respondInternal(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, profile(u))
	}
	utils.RespondJSON(c, http.StatusOK, "All users", out)
}

// UpdateRoles replaces a user's role set. Admins cannot drop their own
// admin role.
func (uc *UserController) UpdateRoles(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var body struct {
		Roles []string `json:"roles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	roles := models.RoleNone
	for _, name := range body.Roles {
		role, ok := models.ParseRole(name)
		if !ok {
			utils.RespondError(c, http.StatusBadRequest, errors.New("unknown role "+name))
			return
		}
		roles = roles.With(role)
	}
	if userID == actor.UserID && !roles.Has(models.RoleAdmin) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cannot revoke your own admin role"))
		return
	}

	db := uc.DB.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errUserNotFound)
			return
		}
		respondInternal(c, err)
		return
	}
	if err := db.Model(&user).Update("roles", roles).Error; err != nil {
		respondInternal(c, err)
		return
	}
	user.Roles = roles

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"roles":   roles.String(),
		"by":      actor.UserID,
	}).Info("roles updated")
	utils.RespondJSON(c, http.StatusOK, "Roles updated", profile(user))
}

// DeleteUser removes an account. Its tables and reservations stay, with the
// owner reference cleared.
func (uc *UserController) DeleteUser(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if userID == actor.UserID {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cannot delete your own account"))
		return
	}

	if err := repository.DeleteUser(c.Request.Context(), uc.DB, userID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			utils.RespondError(c, http.StatusNotFound, errUserNotFound)
			return
		}
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "by": actor.UserID}).Info("user deleted")
	utils.RespondJSON(c, http.StatusOK, "User deleted", gin.H{"id": userID})
}

func profile(u models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"phone_number": u.PhoneNumber,
		"roles":        u.Roles.Names(),
		"is_active":    u.IsActive,
	}
}
