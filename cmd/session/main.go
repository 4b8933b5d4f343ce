// Command session mints a session token for local development.
package main

import (
	"flag"
	"fmt"
	"os"

	"support-chat/internal/auth"
	"support-chat/internal/config"
)

func main() {
	openID := flag.String("open-id", "", "external identity of the session holder (required)")
	name := flag.String("name", "", "display name claim")
	email := flag.String("email", "", "email claim")
	loginMethod := flag.String("login-method", "dev", "login method claim")
	setCookie := flag.Bool("set-cookie", false, "print a full Set-Cookie header instead of name=value")
	flag.Parse()

	if *openID == "" {
		flag.Usage()
		os.Exit(2)
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(appConfig.Auth)
	token, expiresAt, err := sessions.Issue(auth.Identity{
		OpenID:      *openID,
		Name:        *name,
		Email:       *email,
		LoginMethod: *loginMethod,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue: %v\n", err)
		os.Exit(1)
	}

	if *setCookie {
		fmt.Printf("Set-Cookie: %s\n", sessions.Cookie(token, expiresAt).String())
	} else {
		fmt.Printf("%s=%s\n", appConfig.Auth.CookieName, token)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02 15:04:05"))
}
