package utils

import (
	"fmt"
	"net/smtp"
	"strings"
	"ventylab/config"
)

// SendEmail sends an HTML email through the configured SMTP account
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: VentyLab <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #0B3D5C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #0B3D5C; line-height: 1.6; }
			.content h2 { color: #0B3D5C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #4FB0C6; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>VENTYLAB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 VentyLab. All rights reserved.<br>
				Educational content only. Not a substitute for clinical judgment.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// SendWelcomeEmail greets a newly registered learner
func SendWelcomeEmail(email, name string) {
	subject := "Welcome to VentyLab"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome to <strong>VentyLab</strong>! Your account has been created.</p>
		<p>You can now work through the mechanical ventilation curriculum at your own pace, starting with the first available module.</p>
		<p>If you have any questions, reach out to your instructor.</p>
	`, name)

	go SendEmail([]string{email}, subject, getEmailTemplate("Welcome Onboard!", body))
}

// SendLevelCompletedEmail congratulates a learner on finishing a level
func SendLevelCompletedEmail(email, name, levelTitle string) {
	subject := "Level completed: " + levelTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have completed every module of <strong>%s</strong>.</p>
		<div class="info-box">
			<strong>Next steps:</strong> the next level is now unlocked on your dashboard.
		</div>
	`, name, levelTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Level Completed", body))
}
