package email

import (
	"fmt"

	sp "github.com/SparkPost/gosparkpost"
	"github.com/pkg/errors"
)

type Client struct {
	client         sp.Client
	supportAddress string
	noReplyAddress string
	siteName       string
}

func NewClient(apiKey, supportAddress, noReplyAddress, siteName string) (Client, error) {
	client := sp.Client{}
	err := client.Init(&sp.Config{
		BaseUrl:    "https://api.sparkpost.com",
		ApiKey:     apiKey,
		ApiVersion: 1,
	})
	if err != nil {
		return Client{}, errors.Wrap(err, "unable to init sparkpost client")
	}
	return Client{
		client:         client,
		supportAddress: supportAddress,
		noReplyAddress: noReplyAddress,
		siteName:       siteName,
	}, nil
}

func (e Client) SupportSenderAddress() string {
	return e.supportAddress
}

func (e Client) NoReplySenderAddress() string {
	return e.noReplyAddress
}

func (e Client) SendEmail(from, to, replyTo, subject, text string) error {
	tx := &sp.Transmission{
		Recipients: []string{to},
		Content: sp.Content{
			From:    from,
			ReplyTo: replyTo,
			Subject: subject,
			Text:    text,
		},
	}
	_, _, err := e.client.Send(tx)
	if err != nil {
		return errors.Wrap(err, "unable to send email")
	}
	return nil
}

// SendResetPasswordLink mails a time-limited password reset link. The raw
// token is only ever sent here, the database keeps its hash.
func (e Client) SendResetPasswordLink(to, resetURL string) error {
	text := fmt.Sprintf(
		"You are receiving this email because you (or someone else) has requested the reset of a password.\n\nPlease follow this link to set a new password: %s\n\nIf you have not requested this email, then please ignore it.",
		resetURL,
	)
	return e.SendEmail(e.noReplyAddress, to, e.supportAddress, fmt.Sprintf("%s Password Recovery", e.siteName), text)
}
