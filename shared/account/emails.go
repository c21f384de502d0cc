package account

import "fmt"

func verificationEmailHTML(username, token string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Confirm your email</h2>
    <p>Hi %s, welcome! Use this token to activate your account:</p>
    <div style="font-size: 20px; font-weight: bold; letter-spacing: 1px;">%s</div>
    <p>The token expires in 24 hours.</p>
  </div>
</body>
</html>`, username, token)
}

func verificationEmailText(token string) string {
	return fmt.Sprintf("Your email verification token is: %s\nIt expires in 24 hours.", token)
}

func resetEmailHTML(username, token string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset</h2>
    <p>Hi %s, use this token to set a new password:</p>
    <div style="font-size: 20px; font-weight: bold; letter-spacing: 1px;">%s</div>
    <p>If you did not request this, ignore this message.</p>
  </div>
</body>
</html>`, username, token)
}

func resetEmailText(token string) string {
	return fmt.Sprintf("Your password reset token is: %s", token)
}
