package service

import "fmt"

// Email bodies for the three outbound notifications. Links are built
// from the configured application base URL so the frontend routes
// resolve regardless of deployment host.

func verificationEmail(baseURL, token string, resend bool) (subject, htmlBody string) {
	subject = "Account Verification: OASIS Auth"
	note := ""
	if resend {
		subject = "Account Verification: OASIS Auth (Resend)"
		note = "<p>This is a new verification email requested by you.</p>"
	}

	htmlBody = fmt.Sprintf(`
<h2>Please click on below link to activate your account</h2>
<a href="%s/auth/verify/%s">Verify Email</a>
<p><b>NOTE: </b> The above activation link expires in 30 minutes.</p>
<p>If you didn't create this account, please ignore this email.</p>
%s`, baseURL, token, note)

	return subject, htmlBody
}

func resetAuthorizationEmail(baseURL, token string) (subject, htmlBody string) {
	subject = "Password Reset Verification: OASIS Auth"
	htmlBody = fmt.Sprintf(`
<h2>Password Reset Verification</h2>
<p>You requested to reset your password. To proceed, please click the link below to verify your email:</p>
<a href="%s/auth/verify-reset/%s">Verify Email for Password Reset</a>
<p><b>NOTE: </b> This verification link expires in 15 minutes.</p>
<p>If you didn't request this, please ignore this email.</p>
<p>For security reasons, this link can only be used once.</p>`, baseURL, token)

	return subject, htmlBody
}
