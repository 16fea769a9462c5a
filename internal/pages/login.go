package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

var (
	UsernameChain = discovery.CSSChain("username",
		"#username",
		"input[name='username']",
		"input[name='email']",
		"#user",
		"input[type='email']",
		"input[autocomplete='username']",
		"input[type='text']",
	)

	PasswordChain = discovery.CSSChain("password",
		"#password",
		"input[name='password']",
		"#pass",
		"input[type='password']",
	)

	LoginButtonChain = discovery.CSSChain("login_button",
		"#login",
		"input[type='submit']",
		"button[type='submit']",
		".login-btn",
		".signin-btn",
	).Then(
		browser.XPath("//button[contains(normalize-space(.), 'Log in')]"),
		browser.XPath("//button[contains(normalize-space(.), 'Login')]"),
		browser.XPath("//button[contains(normalize-space(.), 'Sign in')]"),
	)
)

// Login exercises sign-in forms with synthetic credentials.
func Login() Strategy {
	base := Generic()
	clickable := LoginButtonChain.Then(base.Clickable.Locators...)
	clickable.Name = "login_clickable"
	inputs := UsernameChain.Then(PasswordChain.Locators...).Then(base.Inputs.Locators...)
	inputs.Name = "login_inputs"
	return Strategy{
		Name:      "login",
		Clickable: clickable,
		Inputs:    inputs,
		SpecializedActions: []SpecializedAction{
			{Name: "submit_login", Run: submitLogin},
		},
	}
}

// submitLogin fills the username and password fields and presses the login
// button. The attempt is expected to be rejected by the site.
func submitLogin(ctx context.Context, env Env) StepResult {
	res := StepResult{Name: "submit_login"}
	user := env.Generator.Email()
	if _, err := fill(ctx, env, UsernameChain, user); err != nil {
		res.Err = err
		return res
	}
	if _, err := fill(ctx, env, PasswordChain, env.Generator.Password()); err != nil {
		res.Err = err
		return res
	}
	btn, err := press(ctx, env, LoginButtonChain)
	if err != nil {
		res.Err = err
		return res
	}
	res.Acted = true
	res.Detail = fmt.Sprintf("submitted credentials for %s via %s", user, btn.Descriptor)
	return res
}

func isIntercepted(err error) bool {
	return errors.Is(err, browser.ErrClickIntercepted)
}
