package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"strings"

	"github.com/escolarhq/escolar/core"
)

// consoleService prints emails to stdout; for local development.
type consoleService struct {
	std *log.Logger
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() *consoleService {
	return &consoleService{std: log.New(os.Stdout, "", log.LstdFlags)}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			svc.std.Printf("rendering email: %v", err)
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "\n--- EMAIL ---\nTo: %s\nSubject: %s\n%s\n", joinAddresses(msg.To), msg.Subject, msg.TextContent)
		for _, a := range msg.Attachments {
			fmt.Fprintf(&b, "Attachment: %s (%s, %d bytes)\n", a.Filename, a.ContentType, a.Content.Len())
		}
		b.WriteString("--- END EMAIL ---")
		svc.std.Println(b.String())
	}
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}
