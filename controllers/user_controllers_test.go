package controllers_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservation/models"
)

func registerBody(email string) gin.H {
	return gin.H{
		"first_name": "Ana",
		"last_name":  "Lima",
		"email":      email,
		"password":   "s3cret-pass",
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/register", "", registerBody("Ana@Example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	link := env.notifier.link("ana@example.com")
	require.True(t, strings.HasPrefix(link, "http://book.test/users/verify/"), link)
	path := strings.TrimPrefix(link, "http://book.test")

	login := gin.H{"email": "ana@example.com", "password": "s3cret-pass"}
	w = env.do(http.MethodPost, "/login", "", login)
	assert.Equal(t, http.StatusForbidden, w.Code, "unverified accounts cannot log in")

	w = env.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, env.db.Where("email = ?", "ana@example.com").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.VerificationToken, "token is consumed")

	w = env.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "a used link cannot be replayed")

	w = env.do(http.MethodPost, "/login", "", login)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string   `json:"token"`
		Roles []string `json:"roles"`
	}
	decode(t, w, &data)
	require.NotEmpty(t, data.Token)
	assert.Empty(t, data.Roles)

	w = env.do(http.MethodGet, "/profile", data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]interface{}
	decode(t, w, &profile)
	assert.Equal(t, "ana@example.com", profile["email"])
	assert.NotContains(t, profile, "password")

	w = env.do(http.MethodPost, "/logout", data.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/profile", data.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/register", "", registerBody("dup@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/register", "", registerBody("dup@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/register", "", gin.H{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.notifier.err = errors.New("broker down")
	w = env.do(http.MethodPost, "/register", "", registerBody("late@example.com"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w, nil).Message)

	var count int64
	env.db.Model(&models.User{}).Where("email = ?", "late@example.com").Count(&count)
	assert.Zero(t, count, "registration rolls back when the link cannot be sent")
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com", models.RoleNone)

	w := env.do(http.MethodPost, "/login", "", gin.H{"email": "alice@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/login", "", gin.H{"email": "nobody@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	alice, aliceToken := env.seedUser(t, "alice@example.com", models.RoleNone)
	table := env.seedTable(t, 5)

	w := env.do(http.MethodPost, "/reservations", aliceToken, reservationBody(table.ID, at("19:00"), "Alice"))
	require.Equal(t, http.StatusCreated, w.Code)
	var res models.Reservation
	decode(t, w, &res)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin/users", aliceToken, nil).Code)

	var users []map[string]interface{}
	w = env.do(http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &users)
	assert.Len(t, users, 2)

	rolesPath := fmt.Sprintf("/admin/users/%d/roles", alice.ID)
	w = env.do(http.MethodPatch, rolesPath, adminToken, gin.H{"roles": []string{"staff"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stored models.User
	require.NoError(t, env.db.First(&stored, alice.ID).Error)
	assert.True(t, stored.Roles.Has(models.RoleStaff))

	w = env.do(http.MethodPatch, rolesPath, adminToken, gin.H{"roles": []string{"chef"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPatch, fmt.Sprintf("/admin/users/%d/roles", admin.ID), adminToken, gin.H{"roles": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", alice.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", alice.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the reservation survives without an owner and only admins can see it
	w = env.do(http.MethodGet, fmt.Sprintf("/reservation/%d", res.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orphan models.Reservation
	decode(t, w, &orphan)
	assert.Nil(t, orphan.OwnerID)
}

func TestRevokedAdmin_LosesAccessImmediately(t *testing.T) {
	env := newTestEnv(t)
	_, rootToken := env.seedUser(t, "root@example.com", models.RoleAdmin)
	bob, bobToken := env.seedUser(t, "bob@example.com", models.RoleAdmin)
	_, aliceToken := env.seedUser(t, "alice@example.com", models.RoleNone)
	table := env.seedTable(t, 2)

	w := env.do(http.MethodPost, "/reservations", aliceToken, reservationBody(table.ID, at("19:00"), "Alice"))
	require.Equal(t, http.StatusCreated, w.Code)
	var res models.Reservation
	decode(t, w, &res)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/admin/users", bobToken, nil).Code)

	w = env.do(http.MethodPatch, fmt.Sprintf("/admin/users/%d/roles", bob.ID), rootToken, gin.H{"roles": []string{}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin/users", bobToken, nil).Code)
	w = env.do(http.MethodPost, fmt.Sprintf("/reservation/%d/delete", res.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Reservation{}).Where("id = ?", res.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeletedUser_TokenRejected(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	alice, aliceToken := env.seedUser(t, "alice@example.com", models.RoleNone)
	table := env.seedTable(t, 3)

	w := env.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", alice.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/reservations", aliceToken, reservationBody(table.ID, at("19:00"), "Alice"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Reservation{}).Count(&count).Error)
	assert.Zero(t, count)
}
