package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"orderbot/pkg/config"
	"orderbot/pkg/customer"
	"orderbot/pkg/logger"
	"orderbot/pkg/order"
	"orderbot/pkg/phone"
	"orderbot/pkg/ui/console"

	"github.com/spf13/cobra"
)

var errNoOrder = errors.New("no order extracted: sender not authorized or message incomplete")

type extractOptions struct {
	sender      string
	name        string
	group       string
	allow       []string
	asJSON      bool
	interactive bool
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [message]",
		Short: "Extract one order from a chat message",
		Long: `Extracts an order from the message given as arguments or on standard input
and prints it. With --interactive, opens a console for pasting messages.

Without a config file the built-in defaults are used. When no allow-list is
configured at all, the --sender number is authorized for this run.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.sender, "sender", "s", "", "phone number the message was sent from")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "display name of the sender")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "chat group the message was posted in")
	cmd.Flags().StringSliceVar(&opts.allow, "allow", nil, "additional allowed sender phone numbers")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the order as JSON")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "open the paste-and-extract console")

	return cmd
}

func init() {
	rootCmd.AddCommand(newExtractCmd())
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	log = log.With("component", "cmd.extract")

	extra := append([]string(nil), opts.allow...)
	sender := strings.TrimSpace(opts.sender)
	if len(cfg.Orders.AllowFrom) == 0 && len(extra) == 0 && sender != "" {
		extra = append(extra, sender)
	}
	if sender == "" {
		sender = firstEntry(cfg.Orders.AllowFrom, extra)
	}
	if sender == "" {
		return errors.New("a --sender phone number or an orders.allow_from entry is required")
	}

	customers := customer.NewStore()
	if cfg.Sinks.Journal.Enabled {
		seedCustomers(cfg.Sinks.Journal, customers, log)
	}

	extractor := newExtractor(cfg, customers, log, extra...)
	msg := order.MessageContext{
		SenderPhone:       sender,
		SenderDisplayName: strings.TrimSpace(opts.name),
		GroupName:         strings.TrimSpace(opts.group),
		MessageID:         "cli",
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	}

	if opts.interactive {
		allowed := phone.NewAllowlist(append(append([]string(nil), cfg.Orders.AllowFrom...), extra...))
		return console.Run(cmd.Context(), func(ctx context.Context, text string) (*order.ExtractedOrder, error) {
			return extractor.Process(ctx, text, msg), nil
		}, console.Info{Sender: phone.Normalize(sender), Group: msg.GroupName, AllowFrom: allowed.Len()})
	}

	text, err := messageText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	extracted := extractor.Process(cmd.Context(), text, msg)
	if extracted == nil {
		return errNoOrder
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(extracted)
	}

	_, err = fmt.Fprintln(out, console.Summary(extracted))
	return err
}

// loadConfigOrDefault reads config.json, falling back to defaults when no
// config file exists.
func loadConfigOrDefault() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// seedCustomers loads past orders from the journal so repeat buyers are
// recognized. A journal that cannot be read is skipped.
func seedCustomers(cfg config.JournalConfig, customers *customer.Store, log *slog.Logger) {
	j, err := openJournal(cfg, customers, log)
	if err != nil {
		log.Warn("Skipping order journal", "error", err)
		return
	}
	if err := j.Close(); err != nil {
		log.Warn("Failed to close order journal", "error", err)
	}
}

func messageText(stdin io.Reader, args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && stdin != nil {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read message from stdin: %w", err)
		}
		text = strings.TrimSpace(string(content))
	}
	if text == "" {
		return "", errors.New("no message given")
	}

	return text, nil
}

func firstEntry(lists ...[]string) string {
	for _, list := range lists {
		for _, entry := range list {
			if entry = strings.TrimSpace(entry); entry != "" {
				return entry
			}
		}
	}

	return ""
}
