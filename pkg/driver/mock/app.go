package mock

import "github.com/devicelab-dev/pagedriver/pkg/core"

// LoginForm locates the elements of a simulated login screen.
type LoginForm struct {
	Username core.Locator
	Password core.Locator
	Button   core.Locator
	Welcome  core.Locator
}

// InstallLoginForm registers a login screen on d. Clicking the button shows
// "Welcome, <username>" under form.Welcome when accept approves the
// credentials; a nil accept approves any non-empty username.
func InstallLoginForm(d *Driver, form LoginForm, accept func(username, password string) bool) {
	if accept == nil {
		accept = func(username, _ string) bool { return username != "" }
	}

	user := d.Add(form.Username, NewElement(""))
	pass := d.Add(form.Password, NewElement(""))
	btn := d.Add(form.Button, NewElement("Login"))
	btn.OnClick = func() {
		if accept(user.CurrentText(), pass.CurrentText()) {
			d.Add(form.Welcome, NewElement("Welcome, "+user.CurrentText()))
			return
		}
		d.Remove(form.Welcome)
	}
}
