package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/matkerbino/murim/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	sendAttempts     = 3
)

// SendgridService delivers messages through the Sendgrid v3 API, retrying throttled
// and 5xx answers.
type SendgridService struct {
	key     string
	host    string
	appName string
	from    mail.Address
	backoff time.Duration
	logger  core.Logger
}

var _ core.EmailService = (*SendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *SendgridService {
	return &SendgridService{
		key:     conf.SendgridApiKey,
		host:    sendgridHost,
		appName: conf.AppName,
		from:    conf.DefaultFromEmail(),
		backoff: time.Second,
		logger:  logger,
	}
}

func (svc *SendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if err := msg.Render(svc.appName); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
				return
			}
			if !msg.HasRecipients() || !msg.HasContent() {
				return
			}
			if err := svc.send(svc.mailV3(msg)); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
			}
		}(msg)
	}
}

// mailV3 builds the Sendgrid payload, with the subject prefixed by the app name.
func (svc *SendgridService) mailV3(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[" + svc.appName + "] " + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	m := sgmail.NewV3Mail().
		SetFrom(sgmail.NewEmail(svc.from.Name, svc.from.Address)).
		AddPersonalizations(p).
		AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	if msg.ReplyTo != nil {
		m.SetReplyTo(sgmail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Address))
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, sgmail.NewEmail(a.Name, a.Address))
	}
	return emails
}

func (svc *SendgridService) send(m *sgmail.SGMailV3) error {
	body := sgmail.GetRequestBody(m)

	var (
		res *rest.Response
		err error
	)
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		req := sendgrid.GetRequest(svc.key, sendgridEndpoint, svc.host)
		req.Method = rest.Post
		req.Body = body

		res, err = sendgrid.API(req)
		switch {
		case err != nil:
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			err = errors.Errorf("status %d: %s", res.StatusCode, res.Body)
		case res.StatusCode >= http.StatusBadRequest:
			return errors.Errorf("status %d: %s", res.StatusCode, res.Body)
		default:
			return nil
		}
		if attempt < sendAttempts {
			time.Sleep(time.Duration(attempt) * svc.backoff)
		}
	}
	return errors.Wrapf(err, "giving up after %d attempts", sendAttempts)
}
