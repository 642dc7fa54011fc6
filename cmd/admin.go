package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trendhub/internal/auth"
	"trendhub/internal/models"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("email", "", "Email address")
	createAdminCmd.Flags().String("username", "", "Username")
	createAdminCmd.Flags().String("password", "", "Password, at least 6 characters")
	createAdminCmd.Flags().String("role", string(models.RoleAdmin), "Role: super-admin, admin, editor")
	createAdminCmd.Flags().String("first-name", "", "First name")
	createAdminCmd.Flags().String("last-name", "", "Last name")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	rawRole, _ := cmd.Flags().GetString("role")
	firstName, _ := cmd.Flags().GetString("first-name")
	lastName, _ := cmd.Flags().GetString("last-name")

	for _, f := range [][2]string{{"email", email}, {"username", username}, {"password", password}} {
		if err := requireFlag(f[0], f[1]); err != nil {
			return err
		}
	}
	role, err := models.ParseAdminRole(rawRole)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	admin := models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Permissions:  models.DefaultPermissions(role),
	}
	if err := st.Admins.Create(ctx, &admin); err != nil {
		return err
	}
	zap.L().Info("admin created", zap.String("admin", admin.ID.Hex()), zap.String("role", string(role)))
	fmt.Println(admin.ID.Hex())
	return nil
}
