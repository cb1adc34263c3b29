package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"smartlocker-web/internal/security"
)

func handleRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email address")
	password := fs.String("password", "", "password (prompted when empty)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl register -u <name> -e <email> [-password <pw>]")
		os.Exit(1)
	}

	in := bufio.NewReader(os.Stdin)
	pw, err := readSecret(in, "Password: ", *password)
	fatal(err)
	confirm := pw
	if *password == "" {
		confirm, err = readSecret(in, "Confirm password: ", "")
		fatal(err)
	}
	fatal(security.CheckRegistration(pw, confirm))

	ctx := context.Background()
	s, err := openSession(ctx)
	fatal(err)
	sess, err := s.gw.Register(ctx, strings.TrimSpace(*username), strings.TrimSpace(*email), pw)
	fatal(err)

	fmt.Printf("✅ Registered and logged in as %s\n", sess.User.Username)
	fmt.Printf("Session saved to %s\n", s.store.Path())
}

func handleLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl login -u <name> [-password <pw>]")
		os.Exit(1)
	}

	pw, err := readSecret(bufio.NewReader(os.Stdin), "Password: ", *password)
	fatal(err)

	ctx := context.Background()
	s, err := openSession(ctx)
	fatal(err)
	sess, err := s.gw.Login(ctx, strings.TrimSpace(*username), pw)
	fatal(err)

	role := "user"
	if sess.User.IsAdmin {
		role = "admin"
	}
	fmt.Printf("✅ Logged in as %s (%s)\n", sess.User.Username, role)
	fmt.Printf("Session saved to %s\n", s.store.Path())
}

func handleLogout(args []string) {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl logout")
		os.Exit(1)
	}

	ctx := context.Background()
	s, err := openSession(ctx)
	fatal(err)
	if !s.gw.IsAuthenticated() {
		fmt.Println("ℹ️  No stored session found.")
		return
	}
	fatal(s.gw.Logout(ctx))
	fmt.Printf("✅ Logged out. Removed session: %s\n", s.store.Path())
}

func handleWhoAmI(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	out := addOutputFlag(fs)
	_ = fs.Parse(args)
	fatal(out.validate())

	ctx := context.Background()
	s, err := openSession(ctx)
	fatal(err)
	fatal(s.require("/dashboard"))

	fatal(printIdentity(os.Stdout, out.format, s.gw.Session(), s.cfg.APIURL()))
}
