package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservation/config"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/repository"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserPromoteCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email, password, firstName, lastName string
	var admin bool

	c := &cobra.Command{
		Use:   "add",
		Short: "Create an active account, skipping email verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openMigrated()
			if err != nil {
				return err
			}
			defer closeDB(db)

			roles := models.RoleNone
			if admin {
				roles = models.RoleAdmin
			}
			user, err := addUser(cmd.Context(), db, email, password, firstName, lastName, roles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user id=%d email=%s roles=%q\n", user.ID, user.Email, user.Roles.String())
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "email address")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&firstName, "first-name", "Admin", "first name")
	c.Flags().StringVar(&lastName, "last-name", "User", "last name")
	c.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func newUserPromoteCmd() *cobra.Command {
	var email string

	c := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openMigrated()
			if err != nil {
				return err
			}
			defer closeDB(db)

			user, err := promoteUser(cmd.Context(), db, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s now has roles %q\n", user.Email, user.Roles.String())
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = c.MarkFlagRequired("email")
	return c
}

func openMigrated() (*gorm.DB, error) {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel)
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

func addUser(ctx context.Context, db *gorm.DB, email, password, firstName, lastName string, roles models.Role) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return models.User{}, errors.New("email and a password of at least 8 characters are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  string(hashed),
		Roles:     roles,
		IsActive:  true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if repository.IsDuplicateKey(err) {
			return models.User{}, fmt.Errorf("user %s already exists", email)
		}
		return models.User{}, err
	}
	return user, nil
}

func promoteUser(ctx context.Context, db *gorm.DB, email string) (models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("no user with email %s", email)
		}
		return models.User{}, err
	}
	user.Roles = user.Roles.With(models.RoleAdmin)
	if err := db.WithContext(ctx).Model(&user).Update("roles", user.Roles).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}
