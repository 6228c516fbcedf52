package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/scribe/internal/credstore"
)

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "manage the API key in the credential store",
		Commands: []*cli.Command{
			{
				Name:   "set",
				Usage:  "store the API key, read from the terminal or stdin",
				Action: withStore(keySetAction),
			},
			{
				Name:   "get",
				Usage:  "print the stored API key",
				Action: withStore(keyGetAction),
			},
			{
				Name:   "delete",
				Usage:  "remove the stored API key",
				Action: withStore(keyDeleteAction),
			},
			{
				Name:   "status",
				Usage:  "report whether an API key is stored",
				Action: withStore(keyStatusAction),
			},
		},
	}
}

type storeAction func(ctx context.Context, cmd *cli.Command, store credstore.Store) error

// withStore resolves the configured credential store before running action.
func withStore(action storeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		shutdown, err := instrument(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer flushTelemetry(shutdown)

		store, err := cfg.Credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to create credential store: %w", err)
		}
		return action(ctx, cmd, store)
	}
}

func keySetAction(ctx context.Context, cmd *cli.Command, store credstore.Store) error {
	root := cmd.Root()
	secret, err := readSecret(root.Reader, root.ErrWriter)
	if err != nil {
		return fmt.Errorf("reading api key: %w", err)
	}
	if secret == "" {
		return errors.New("api key cannot be empty")
	}

	if err := store.Save(ctx, secret); err != nil {
		return fmt.Errorf("saving api key: %w", err)
	}
	_, err = fmt.Fprintln(root.Writer, "api key saved")
	return err
}

func keyGetAction(ctx context.Context, cmd *cli.Command, store credstore.Store) error {
	secret, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading api key: %w", err)
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, secret)
	return err
}

func keyDeleteAction(ctx context.Context, cmd *cli.Command, store credstore.Store) error {
	if err := store.Delete(ctx); err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	_, err := fmt.Fprintln(cmd.Root().Writer, "api key deleted")
	return err
}

// keyStatusAction reports backend failures instead of folding them into "absent".
func keyStatusAction(ctx context.Context, cmd *cli.Command, store credstore.Store) error {
	ok, err := store.Exists(ctx)
	if err != nil {
		return fmt.Errorf("probing credential store: %w", err)
	}

	status := "absent"
	if ok {
		status = "present"
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, status)
	return err
}

// readSecret reads without echo from a terminal, otherwise the first line of r.
func readSecret(r io.Reader, prompt io.Writer) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if prompt != nil {
			_, _ = fmt.Fprint(prompt, "API key: ")
		}
		data, err := term.ReadPassword(int(f.Fd()))
		if prompt != nil {
			_, _ = fmt.Fprintln(prompt)
		}
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
