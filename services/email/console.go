package emailsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
)

// consoleService writes every message to the logger as a MIME document instead of sending it.
type consoleService struct {
	from          mail.Address
	subjPrefix    string
	logger        core.Logger
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail,
		subjPrefix: subjectPrefix(conf),
		logger:     logger,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

// deliver reports whether msg was written out.
func (svc *consoleService) deliver(msg *core.EmailMessage) bool {
	ok, err := render(msg)
	if err != nil {
		svc.logger.Error(err.Error(), err)
	}
	if !ok {
		return false
	}

	var doc strings.Builder
	if err = svc.writeMIME(&doc, msg); err != nil {
		svc.logger.Error(fmt.Sprintf("formatting email: %v", err), err)
		return false
	}
	if !svc.disableOutput {
		svc.logger.Info(doc.String())
	}
	return true
}

func (svc *consoleService) writeMIME(w io.Writer, msg *core.EmailMessage) error {
	headers := [][2]string{
		{"From", svc.from.String()},
		{"MIME-Version", "1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Subject", svc.subjPrefix + msg.Subject},
		{"To", joinAddresses(msg.To)},
	}
	if len(msg.Cc) > 0 {
		headers = append(headers, [2]string{"CC", joinAddresses(msg.Cc)})
	}
	if len(msg.Bcc) > 0 {
		headers = append(headers, [2]string{"BCC", joinAddresses(msg.Bcc)})
	}
	for _, h := range headers {
		_, _ = fmt.Fprintf(w, "%s: %s\r\n", h[0], h[1])
	}

	alt := multipart.NewWriter(w)
	altType := "multipart/alternative; boundary=" + alt.Boundary()
	var mixed *multipart.Writer
	if msg.HasAttachments() {
		mixed = multipart.NewWriter(w)
		_, _ = fmt.Fprintf(w, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixed.Boundary())
		if _, err := mixed.CreatePart(textproto.MIMEHeader{"Content-Type": {altType}}); err != nil {
			return errors.Wrap(err, "opening alternative part")
		}
	} else {
		_, _ = fmt.Fprintf(w, "Content-Type: %s\r\n\r\n", altType)
	}

	bodies := []struct{ ctype, content string }{{"text/plain", msg.TextContent}}
	if msg.HTMLContent != "" {
		bodies = append(bodies, struct{ ctype, content string }{"text/html", msg.HTMLContent})
	}
	for _, b := range bodies {
		part, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {b.ctype + "; charset=utf-8"}})
		if err != nil {
			return errors.Wrapf(err, "opening %s part", b.ctype)
		}
		_, _ = fmt.Fprintf(part, "%s\r\n", b.content)
	}
	_ = alt.Close()

	if mixed == nil {
		return nil
	}
	for _, at := range msg.Attachments {
		part, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {at.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {"attachment; filename=" + at.Filename},
		})
		if err != nil {
			return errors.Wrapf(err, "opening attachment %s", at.Filename)
		}
		_, _ = fmt.Fprintf(part, "%s\r\n", at.Content.String())
	}
	return mixed.Close()
}

func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// ConsoleServiceMock delivers synchronously and records what it delivered.
type ConsoleServiceMock struct {
	consoleService

	mu   sync.Mutex
	sent []core.EmailMessage
}

func NewConsoleServiceMock(conf *core.Config, logger core.Logger) *ConsoleServiceMock {
	mock := &ConsoleServiceMock{}
	mock.from = conf.DefaultFromEmail
	mock.subjPrefix = subjectPrefix(conf)
	mock.logger = logger
	mock.disableOutput = true
	return mock
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if !svc.deliver(msg) {
			continue
		}
		svc.mu.Lock()
		svc.sent = append(svc.sent, *msg)
		svc.mu.Unlock()
	}
}

func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}
