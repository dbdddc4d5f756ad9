package emailsvc

import (
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/shule/core"
)

type sendgridService struct {
	client           *sendgrid.Client
	defaultFromEmail mail.Address
	subjPrefix       string
	logger           core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridService{
		client:           sendgrid.NewSendClient(conf.SendgridApiKey),
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		logger:           logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc sendgridService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error("rendering email", err)
		return
	}
	if msg.HasRecipients() && msg.HasContent() {
		if err := svc.send(*msg); err != nil {
			svc.logger.Error("sending email", err)
		}
	}
}

func (svc sendgridService) send(msg core.EmailMessage) error {
	sgMsg := sgmail.NewV3Mail()
	sgMsg.SetFrom(sgmail.NewEmail(svc.defaultFromEmail.Name, svc.defaultFromEmail.Address))
	sgMsg.Subject = svc.subjPrefix + msg.Subject
	sgMsg.AddContent(sgmail.NewContent("text/plain", msg.TextContent))

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}
	sgMsg.AddPersonalizations(p)

	resp, err := svc.client.Send(sgMsg)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("sending email: sendgrid responded with %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
