package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"medhive-backend/pkg/inquiryform"

	"github.com/spf13/cobra"
)

type submitOptions struct {
	server      string
	org         string
	email       string
	message     string
	messageFile string
	interactive bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "inquiry",
		Short:        "Send partnership inquiries to a MedHive inquiry endpoint",
		SilenceUsage: true,
	}
	root.AddCommand(newSubmitCmd())
	return root
}

func newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one inquiry",
		Example: `  inquiry submit --org "Acme Pharma" --email partner@acme.com --message "Let's talk"
  inquiry submit --org Acme --email a@acme.com --message-file note.txt --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.server, "server", envOr("INQUIRY_SERVER_URL", "http://localhost:5000"), "base URL of the inquiry service")
	f.StringVar(&opts.org, "org", "", "organization name")
	f.StringVar(&opts.email, "email", "", "contact email")
	f.StringVar(&opts.message, "message", "", "inquiry text")
	f.StringVar(&opts.messageFile, "message-file", "", "read the inquiry text from a file ('-' for stdin)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "offer to retry after a failure")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
	return cmd
}

func runSubmit(ctx context.Context, opts *submitOptions, in io.Reader, out, errOut io.Writer) error {
	message := opts.message
	if opts.messageFile != "" {
		var (
			raw []byte
			err error
		)
		if opts.messageFile == "-" {
			raw, err = io.ReadAll(in)
		} else {
			raw, err = os.ReadFile(opts.messageFile)
		}
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		message = string(raw)
	}

	alerter := inquiryform.AlerterFunc(func(msg string) {
		fmt.Fprintln(errOut, "!", msg)
	})
	form := inquiryform.NewController(inquiryform.NewClient(opts.server), alerter)

	for field, value := range map[inquiryform.Field]string{
		inquiryform.FieldOrganizationName: opts.org,
		inquiryform.FieldEmail:            opts.email,
		inquiryform.FieldInquiry:          message,
	} {
		if err := form.SetField(field, value); err != nil {
			return err
		}
	}

	reader := bufio.NewReader(in)
	for {
		err := form.Submit(ctx)
		if err == nil {
			fmt.Fprintln(out, form.Snapshot().Confirmation)
			return nil
		}
		if errors.Is(err, inquiryform.ErrMissingField) || !opts.interactive || ctx.Err() != nil {
			return err
		}

		fmt.Fprint(out, "Retry? [y/N] ")
		answer, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return err
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
