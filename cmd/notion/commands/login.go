package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	"github.com/fivetwenty-io/notion-client/internal/cache"
	"github.com/fivetwenty-io/notion-client/internal/client"
	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store an integration token",
		Long: `Verify an integration token against the service and store it in the
configuration file.

The token is taken from --token, or prompted for without echo. When stdin is
not a terminal the first line of stdin is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := viper.GetString("token")
			if flag := cmd.Flag("token"); flag == nil || !flag.Changed {
				var err error

				token, err = promptToken(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			credential, err := auth.NewCredential(token)
			if err != nil {
				return fmt.Errorf("%w: %w", constants.ErrEmptyToken, err)
			}

			config := loadConfig()

			notionConfig := buildNotionConfig(config)
			notionConfig.Token = credential.Secret()

			c, err := client.New(context.Background(), notionConfig)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			// Listing verifies the token and replaces any directory cached
			// under a previous one.
			backend, err := newCacheBackend(config.Cache)
			if err != nil {
				backend = cache.NewNoOpCache()
			}

			if closer, ok := backend.(io.Closer); ok {
				defer func() { _ = closer.Close() }()
			}

			dbs, err := cache.NewDirectory(backend, c, cacheTTL(config.Cache)).Databases(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to verify token: %w", err)
			}

			err = auth.NewConfigTokenManager(NewConfigPersister()).SetToken(credential.Secret())
			if err != nil {
				return err
			}

			return outputMessage(cmd.OutOrStdout(),
				fmt.Sprintf("Logged in. %d database(s) shared with the integration.", len(dbs)),
				map[string]string{"databases": strconv.Itoa(len(dbs))})
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored integration token",
		Long:  "Remove the integration token from the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = ""

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set("token", "")

			return outputMessage(cmd.OutOrStdout(), "Logged out", nil)
		},
	}
}

func promptToken(stdin io.Reader, stderr io.Writer) (string, error) {
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = io.WriteString(stderr, "Integration token: ")

		secret, err := term.ReadPassword(int(file.Fd()))

		_, _ = io.WriteString(stderr, "\n")

		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrTokenPromptFailed, err)
		}

		return string(secret), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %w", ErrTokenPromptFailed, err)
	}

	return strings.TrimSpace(line), nil
}
