// Package queue defines the account mail payloads exchanged over RabbitMQ
// together with their publisher and consumer.
package queue

// MailQueueName is the durable queue carrying outgoing account mail.
const MailQueueName = "account.mail"

// Mail kinds.
const (
	KindPasswordRecovery = "password_recovery"
	KindNewAccount       = "new_account"
)

// MailMessage is published whenever the service needs to reach a principal
// out of band.  Password reset tokens travel only inside HTML; they are never
// logged by the publisher.
type MailMessage struct {
	Kind    string `json:"kind"`
	Variant string `json:"variant"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	SentAt  string `json:"sent_at"`
}
