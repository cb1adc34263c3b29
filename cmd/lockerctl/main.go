// The `lockerctl` CLI talks to the locker backend with the same client core
// as the web front end. The session is kept in
// ~/.config/smartlocker/session.json.
//
// Usage:
//
//	lockerctl register -u <name> -e <email>   create an account and sign in
//	lockerctl login -u <name>                 sign in
//	lockerctl logout                          forget the stored session
//	lockerctl whoami                          show the signed-in user
//	lockerctl lockers [-watch]                list lockers, optionally polling
//	lockerctl reserve <id> <hours>            reserve a locker
//	lockerctl admin list|stats|create|status|delete
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "register":
		handleRegister(args)
	case "login":
		handleLogin(args)
	case "logout":
		handleLogout(args)
	case "whoami", "me":
		handleWhoAmI(args)
	case "lockers", "ls":
		handleLockers(args)
	case "reserve":
		handleReserve(args)
	case "admin":
		handleAdmin(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lockerctl: SmartLockers command-line client

Usage:
  lockerctl register -u <name> -e <email> [-password <pw>]
  lockerctl login -u <name> [-password <pw>]
  lockerctl logout
  lockerctl whoami [-o table|yaml]
  lockerctl lockers [-watch] [-interval 10s] [-o table|yaml]
  lockerctl reserve <id> <hours>
  lockerctl admin list [-o table|yaml]
  lockerctl admin stats [-o table|yaml]
  lockerctl admin create -number <n> -location <loc> -price <p> [-status available]
  lockerctl admin status <id> <available|occupied|maintenance>
  lockerctl admin delete <id> [-yes]

Environment:
  API_BASE_URL   backend base URL (default http://localhost:8000)
  LOG_LEVEL      log level written to stderr (default warn)`)
}

func fatal(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
