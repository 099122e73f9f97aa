// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import "html/template"

// templateData is the union of fields used by the mail templates.
type templateData struct {
	Name       string
	Code       string
	When       string
	LoginURL   string
	RecoverURL string
	Year       int
}

const baseStyle = `
    <style>
      * { font-family: Arial, sans-serif; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: #007bff; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
      .content { background: #f9f9f9; padding: 20px; border-radius: 0 0 5px 5px; }
      .footer { text-align: center; color: #666; font-size: 12px; padding: 20px; }
      .button { background: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; }
    </style>
`

const footer = `
          <div class="footer">
            <p>&copy; {{.Year}} LawLens. All rights reserved.</p>
          </div>
`

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
  <head>` + baseStyle + `</head>
  <body>
    <div class="container">
      <div class="header"><h1>Welcome aboard!</h1></div>
      <div class="content">
        <h2>Hello {{.Name}},</h2>
        <p>Welcome to LawLens! Your account has been successfully created.</p>
        <p>Get started by logging in and uploading your first document.</p>
        <a href="{{.LoginURL}}" class="button">Login Now</a>
      </div>` + footer + `
    </div>
  </body>
</html>
`))

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
  <head>` + baseStyle + `</head>
  <body>
    <div class="container">
      <div class="header"><h1>Login Notification</h1></div>
      <div class="content">
        <h2>Hello {{.Name}},</h2>
        <p>You have successfully logged in to your account at {{.When}}.</p>
        <p>If this wasn't you, please secure your account immediately.</p>
        <a href="{{.RecoverURL}}" class="button">Secure Account</a>
      </div>` + footer + `
    </div>
  </body>
</html>
`))

var otpTmpl = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <head>` + baseStyle + `</head>
  <body>
    <div class="container">
      <div class="header"><h1>Password Reset</h1></div>
      <div class="content">
        <h2>Your Reset Code</h2>
        <p style="font-size: 24px; font-weight: bold; text-align: center; color: #007bff;">{{.Code}}</p>
        <p>This code expires in 10 minutes. Use it to reset your password.</p>
        <p>If you didn't request this, please ignore this email.</p>
      </div>` + footer + `
    </div>
  </body>
</html>
`))

var passwordChangedTmpl = template.Must(template.New("password_changed").Parse(`<!DOCTYPE html>
<html>
  <head>` + baseStyle + `</head>
  <body>
    <div class="container">
      <div class="header"><h1>Password Changed</h1></div>
      <div class="content">
        <h2>Hello {{.Name}},</h2>
        <p>Your password was successfully changed on {{.When}}.</p>
        <p>If you did not make this change, please secure your account immediately by resetting your password.</p>
        <a href="{{.RecoverURL}}" class="button">Reset Password</a>
      </div>` + footer + `
    </div>
  </body>
</html>
`))
