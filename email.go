package authgate

import "log"

// SendEmail lets applications plug in their own delivery. The library only
// ever sends sign-in links; templating and transport are the caller's.
type SendEmail interface {
	SendSignInEmail(to string, signInLink string) error
}

// ConsoleEmailSender is a development implementation that logs the link
// instead of delivering it.
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendSignInEmail(to string, signInLink string) error {
	log.Printf("\n=== EMAIL: Sign in ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Sign in to your account")
	log.Printf("Body: Click to sign in: %s", signInLink)
	log.Printf("======================\n")
	return nil
}
