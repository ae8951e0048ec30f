package admincli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var (
		email         string
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Example: `  gardenadmin create-admin --email root@example.com
  echo "$PASSWORD" | gardenadmin create-admin --email ci@example.com --role viewer --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				password []byte
				err      error
			)
			if passwordStdin {
				password, err = readPasswordLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			defer clear(password)

			cfg, l, err := opts.load(cmd)
			if err != nil {
				return err
			}
			st, err := openStorage(cmd.Context(), cfg, l)
			if err != nil {
				return err
			}
			defer st.DB.Close()

			svc := services.NewAdminService(st.DB, st.Manager, cfg, l)
			admin, err := svc.Register(cmd.Context(), email, string(password), role)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", admin.Role, admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "account role (admin|viewer)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPasswordLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("empty password on stdin")
	}
	return []byte(line), nil
}

// promptPassword asks twice without echo and requires both entries to match.
func promptPassword(w io.Writer) ([]byte, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
